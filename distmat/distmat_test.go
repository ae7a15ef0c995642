package distmat

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/microbiogeo"
)

// Unweighted UniFrac distances from the QIIME overview tutorial.
const overviewDM = "\tPC.354\tPC.355\tPC.356\tPC.481\tPC.593\tPC.607\tPC.634\tPC.635\tPC.636\n" +
	"PC.354\t0\t0.595483768391\t0.618074717633\t0.582763100909\t0.566949022108\t0.714717232268\t0.772001731764\t0.690237118413\t0.740681707488\n" +
	"PC.355\t0.595483768391\t0\t0.581427669668\t0.613726772383\t0.65945132763\t0.745176523638\t0.733836123821\t0.720305073505\t0.680785600439\n" +
	"PC.356\t0.618074717633\t0.581427669668\t0\t0.672149021573\t0.699416863323\t0.71405573754\t0.759178215168\t0.689701276341\t0.725100672826\n" +
	"PC.481\t0.582763100909\t0.613726772383\t0.672149021573\t0\t0.64756120797\t0.666018240373\t0.66532968784\t0.650464714994\t0.632524644216\n" +
	"PC.593\t0.566949022108\t0.65945132763\t0.699416863323\t0.64756120797\t0\t0.703720200713\t0.748240937349\t0.73416971958\t0.727154987937\n" +
	"PC.607\t0.714717232268\t0.745176523638\t0.71405573754\t0.666018240373\t0.703720200713\t0\t0.707316869557\t0.636288883818\t0.699880573956\n" +
	"PC.634\t0.772001731764\t0.733836123821\t0.759178215168\t0.66532968784\t0.748240937349\t0.707316869557\t0\t0.565875193399\t0.560605525642\n" +
	"PC.635\t0.690237118413\t0.720305073505\t0.689701276341\t0.650464714994\t0.73416971958\t0.636288883818\t0.565875193399\t0\t0.575788039321\n" +
	"PC.636\t0.740681707488\t0.680785600439\t0.725100672826\t0.632524644216\t0.727154987937\t0.699880573956\t0.560605525642\t0.575788039321\t0\n"

func parseString(t *testing.T, s string) *DistanceMatrix {
	t.Helper()

	records, _, err := microbiogeo.ParseRecords([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	dm, err := Parse(records)
	if err != nil {
		t.Fatal(err)
	}

	return dm
}

func TestParseOverview(t *testing.T) {
	dm := parseString(t, overviewDM)

	if dm.Size() != 9 {
		t.Fatalf("Expected 9 samples, got %d", dm.Size())
	}
	if ids := dm.IDs(); ids[0] != "PC.354" || ids[8] != "PC.636" {
		t.Errorf("Unexpected IDs %v", ids)
	}

	d, err := dm.Distance("PC.634", "PC.636")
	if err != nil {
		t.Fatal(err)
	}
	if d != 0.560605525642 {
		t.Errorf("Expected 0.560605525642, got %v", d)
	}

	if _, err := dm.Distance("PC.354", "nope"); err == nil {
		t.Errorf("Expected an error for an unknown sample")
	}

	if got := len(dm.Condensed()); got != 36 {
		t.Errorf("Expected 36 condensed distances, got %d", got)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		Name  string
		Input string
	}{
		{"empty", ""},
		{"no ids", "\n"},
		{"not square", "\ta\tb\na\t0\t1\n"},
		{"short row", "\ta\tb\na\t0\nb\t1\t0\n"},
		{"label mismatch", "\ta\tb\na\t0\t1\nc\t1\t0\n"},
		{"asymmetric", "\ta\tb\na\t0\t1\nb\t2\t0\n"},
		{"not hollow", "\ta\tb\na\t1\t1\nb\t1\t0\n"},
		{"negative", "\ta\tb\na\t0\t-1\nb\t-1\t0\n"},
		{"not a number", "\ta\tb\na\t0\tx\nb\tx\t0\n"},
		{"duplicate ids", "\ta\ta\na\t0\t1\na\t1\t0\n"},
	}

	for _, c := range cases {
		records, _, err := microbiogeo.ParseRecords([]byte(c.Input))
		if err != nil {
			continue
		}
		if _, err := Parse(records); err == nil {
			t.Errorf("%s: expected an error", c.Name)
		}
	}
}

func TestSubset(t *testing.T) {
	dm := parseString(t, overviewDM)

	sub, err := dm.Subset([]string{"PC.636", "PC.354", "PC.635"})
	if err != nil {
		t.Fatal(err)
	}

	exp := []float64{0.740681707488, 0.575788039321, 0.690237118413}
	got := sub.Condensed()
	for i := range exp {
		if got[i] != exp[i] {
			t.Errorf("Condensed[%d]: expected %v, got %v", i, exp[i], got[i])
		}
	}

	if _, err := dm.Subset([]string{"PC.354", "missing"}); err == nil {
		t.Errorf("Expected an error subsetting to an unknown sample")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dm := parseString(t, overviewDM)

	var buf bytes.Buffer
	if err := dm.Write(&buf); err != nil {
		t.Fatal(err)
	}

	if buf.String() != overviewDM {
		t.Errorf("Round trip mismatch:\n%s", buf.String())
	}
}

func TestFromValues(t *testing.T) {
	dm, err := FromValues([]string{"a", "b", "c"}, []float64{1, 4, -2})
	if err != nil {
		t.Fatal(err)
	}

	exp := []float64{3, 3, 6}
	for i, v := range dm.Condensed() {
		if math.Abs(v-exp[i]) > 1e-12 {
			t.Errorf("Condensed[%d]: expected %v, got %v", i, exp[i], v)
		}
	}

	if _, err := FromValues([]string{"a"}, []float64{1, 2}); err == nil {
		t.Errorf("Expected an error for mismatched lengths")
	}
}

func TestReadCommaSeparated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dm.csv")
	input := strings.ReplaceAll(overviewDM, "\t", ",")
	if err := os.WriteFile(path, []byte(input), 0644); err != nil {
		t.Fatal(err)
	}

	dm, err := Read(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if dm.Size() != 9 {
		t.Errorf("Expected 9 samples, got %d", dm.Size())
	}
}

func TestRelabel(t *testing.T) {
	dm := parseString(t, "\ta\tb\tc\na\t0\t1\t2\nb\t1\t0\t3\nc\t2\t3\t0\n")

	renamed, err := dm.Relabel(map[string]string{"a": "x", "c": "z"})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(renamed.IDs(), ","); got != "x,b,z" {
		t.Errorf("Expected x,b,z, got %s", got)
	}
	if d, _ := renamed.Distance("x", "z"); d != 2 {
		t.Errorf("Expected 2, got %v", d)
	}
	if got := strings.Join(dm.IDs(), ","); got != "a,b,c" {
		t.Errorf("Relabel modified the original: %s", got)
	}

	if _, err := dm.Relabel(map[string]string{"a": "b"}); err == nil {
		t.Errorf("Expected an error when relabeling creates duplicates")
	}
}
