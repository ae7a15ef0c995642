package stats

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/carbocation/microbiogeo/distmat"
)

const tolerance = 1e-6

// lineMatrix places samples at the given positions on a line.
func lineMatrix(t *testing.T, positions ...float64) *distmat.DistanceMatrix {
	t.Helper()

	ids := make([]string, len(positions))
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}

	dm, err := distmat.FromValues(ids, positions)
	if err != nil {
		t.Fatal(err)
	}

	return dm
}

func seeded(perms int) Options {
	return Options{Permutations: perms, Rand: rand.New(rand.NewSource(1)), Factor: "Treatment"}
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestAverageRanks(t *testing.T) {
	got := averageRanks([]float64{3, 1, 3, 2, 5})
	exp := []float64{3.5, 1, 3.5, 2, 5}
	for i := range exp {
		if got[i] != exp[i] {
			t.Errorf("Rank %d: expected %v, got %v", i, exp[i], got[i])
		}
	}
}

func TestFormatPValue(t *testing.T) {
	cases := []struct {
		P     float64
		Perms int
		Exp   string
	}{
		{0.001, 999, "0.001"},
		{0.05, 99, "0.05"},
		{0.0123, 1000, "0.012"},
		{0.5, 9, "Too few iters to compute p-value (num_iters=9)"},
		{0.5, 0, "Too few iters to compute p-value (num_iters=0)"},
	}

	for _, c := range cases {
		if got := FormatPValue(c.P, c.Perms); got != c.Exp {
			t.Errorf("FormatPValue(%v, %d): expected %q, got %q", c.P, c.Perms, c.Exp, got)
		}
	}
}

func TestPermutationPValue(t *testing.T) {
	if p := permutationPValue(2, []float64{1, 2, 3}); !closeTo(p, 0.75) {
		t.Errorf("Expected 0.75, got %v", p)
	}
	if p := permutationPValue(2, nil); !math.IsNaN(p) {
		t.Errorf("Expected NaN without permutations, got %v", p)
	}
}

func TestAnosimSeparatedGroups(t *testing.T) {
	dm := lineMatrix(t, 0, 1, 10, 11)
	labels := []string{"Control", "Control", "Fast", "Fast"}

	res, err := Anosim(dm, labels, seeded(0))
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(res.R, 1) {
		t.Errorf("Expected R=1, got %v", res.R)
	}
	if !math.IsNaN(res.P) {
		t.Errorf("Expected NaN p-value with no permutations, got %v", res.P)
	}
	if !strings.Contains(res.Report(), "Significance: NA") {
		t.Errorf("Expected NA significance in report:\n%s", res.Report())
	}

	res, err = Anosim(dm, labels, seeded(99))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Null()) != 99 {
		t.Errorf("Expected 99 permuted statistics, got %d", len(res.Null()))
	}
	if res.P <= 0 || res.P > 1 {
		t.Errorf("p-value %v out of range", res.P)
	}
	if !strings.Contains(res.Report(), "ANOSIM statistic R: 1\n") {
		t.Errorf("Unexpected report:\n%s", res.Report())
	}
}

func TestGroupingErrors(t *testing.T) {
	dm := lineMatrix(t, 0, 1, 10, 11)

	cases := []struct {
		Name   string
		Labels []string
		Opts   Options
	}{
		{"one group", []string{"a", "a", "a", "a"}, seeded(9)},
		{"all singletons", []string{"a", "b", "c", "d"}, seeded(9)},
		{"wrong length", []string{"a", "b"}, seeded(9)},
		{"negative permutations", []string{"a", "a", "b", "b"}, seeded(-1)},
	}

	for _, c := range cases {
		if _, err := Anosim(dm, c.Labels, c.Opts); err == nil {
			t.Errorf("anosim %s: expected an error", c.Name)
		}
		if _, err := Permanova(dm, c.Labels, c.Opts); err == nil {
			t.Errorf("permanova %s: expected an error", c.Name)
		}
		if _, err := Permdisp(dm, c.Labels, SpatialMedian, c.Opts); err == nil {
			t.Errorf("permdisp %s: expected an error", c.Name)
		}
	}
}

func TestPermanovaHandComputed(t *testing.T) {
	// Squared distances: within 1 and 1; between 100, 121, 81 and 100.
	dm := lineMatrix(t, 0, 1, 10, 11)
	labels := []string{"Control", "Control", "Fast", "Fast"}

	res, err := Permanova(dm, labels, seeded(99))
	if err != nil {
		t.Fatal(err)
	}

	if !closeTo(res.SSTotal, 101) {
		t.Errorf("Expected SS total 101, got %v", res.SSTotal)
	}
	if !closeTo(res.SSResiduals, 1) {
		t.Errorf("Expected SS residuals 1, got %v", res.SSResiduals)
	}
	if !closeTo(res.F, 200) {
		t.Errorf("Expected F=200, got %v", res.F)
	}
	if !closeTo(res.R2, 100.0/101) {
		t.Errorf("Expected R2=%v, got %v", 100.0/101, res.R2)
	}
	if res.DfGroups != 1 || res.DfResiduals != 2 {
		t.Errorf("Unexpected degrees of freedom %d, %d", res.DfGroups, res.DfResiduals)
	}
	if !strings.Contains(res.Report(), "Residuals") {
		t.Errorf("Unexpected report:\n%s", res.Report())
	}
}

func TestPermdispHandComputed(t *testing.T) {
	// Group A sits at 0, 2, 4 (centre 2) and group B at 10, 11, 12 (centre
	// 11), so the distances to centre are 2, 0, 2 and 1, 0, 1.
	dm := lineMatrix(t, 0, 2, 4, 10, 11, 12)
	labels := []string{"A", "A", "A", "B", "B", "B"}

	for _, centre := range []CentreType{SpatialMedian, Centroid} {
		res, err := Permdisp(dm, labels, centre, seeded(99))
		if err != nil {
			t.Fatal(err)
		}

		exp := []float64{2, 0, 2, 1, 0, 1}
		for i := range exp {
			if !closeTo(res.Distances[i], exp[i]) {
				t.Errorf("%s: distance %d: expected %v, got %v", centre, i, exp[i], res.Distances[i])
			}
		}
		if !closeTo(res.MeanDistances[0], 4.0/3) || !closeTo(res.MeanDistances[1], 2.0/3) {
			t.Errorf("%s: unexpected mean distances %v", centre, res.MeanDistances)
		}
		if !closeTo(res.F, 0.8) {
			t.Errorf("%s: expected F=0.8, got %v", centre, res.F)
		}
		if res.ParametricP <= 0 || res.ParametricP >= 1 {
			t.Errorf("%s: parametric p-value %v out of range", centre, res.ParametricP)
		}
		if len(res.Null()) != 99 {
			t.Errorf("%s: expected 99 permuted statistics, got %d", centre, len(res.Null()))
		}
		if !strings.Contains(res.Report(), "Average distance to "+centre.String()) {
			t.Errorf("%s: unexpected report:\n%s", centre, res.Report())
		}
	}
}

func TestSpatialMedianIgnoresOutlier(t *testing.T) {
	m := spatialMedian([][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {100, 100}})
	if m[0] > 2 || m[1] > 2 {
		t.Errorf("Spatial median %v was pulled towards the outlier", m)
	}

	c := centroid([][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {100, 100}})
	if !closeTo(c[0], 20.4) || !closeTo(c[1], 20.4) {
		t.Errorf("Unexpected centroid %v", c)
	}
}

func TestMantelIdenticalMatrices(t *testing.T) {
	dm := lineMatrix(t, 0, 1, 3, 7, 15, 31)

	for _, tail := range []TailType{TwoSided, Greater, Less} {
		res, err := Mantel(dm, dm, tail, seeded(99))
		if err != nil {
			t.Fatal(err)
		}
		if !closeTo(res.R, 1) {
			t.Errorf("%s: expected r=1, got %v", tail, res.R)
		}
		if tail == Less && !closeTo(res.P, 1) {
			t.Errorf("%s: expected p=1, got %v", tail, res.P)
		}
		if tail != Less && res.P > 0.2 {
			t.Errorf("%s: expected a small p-value, got %v", tail, res.P)
		}
	}
}

func TestMantelErrors(t *testing.T) {
	small := lineMatrix(t, 0, 1)
	if _, err := Mantel(small, small, TwoSided, seeded(9)); err == nil {
		t.Errorf("Expected an error with fewer than 3 samples")
	}

	a := lineMatrix(t, 0, 1, 2)
	b := lineMatrix(t, 0, 1, 2, 3)
	if _, err := Mantel(a, b, TwoSided, seeded(9)); err == nil {
		t.Errorf("Expected an error for differently sized matrices")
	}

	if _, err := Mantel(a, a, TailType("sideways"), seeded(9)); err == nil {
		t.Errorf("Expected an error for an unknown tail type")
	}
}

func TestParseTailType(t *testing.T) {
	if tail, err := ParseTailType(" Two Sided"); err != nil || tail != TwoSided {
		t.Errorf("Expected two sided, got %q (%v)", tail, err)
	}
	if _, err := ParseTailType("both"); err == nil {
		t.Errorf("Expected an error")
	}
}

func TestMoransI(t *testing.T) {
	dm := lineMatrix(t, 0, 1, 2, 3, 4, 5, 6, 7)
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7}

	res, err := MoransI(dm, values, seeded(0))
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(res.Expected, -1.0/7) {
		t.Errorf("Expected E[I]=%v, got %v", -1.0/7, res.Expected)
	}
	if res.Observed <= res.Expected {
		t.Errorf("Expected positive autocorrelation along a gradient, got I=%v", res.Observed)
	}
	if !(res.SD > 0) || res.P < 0 || res.P > 1 {
		t.Errorf("Unexpected sd %v or p %v", res.SD, res.P)
	}

	// I is unchanged by affine transformations of the variable.
	scaled := make([]float64, len(values))
	for i, v := range values {
		scaled[i] = -3*v + 12
	}
	res2, err := MoransI(dm, scaled, seeded(0))
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(res.Observed, res2.Observed) || !closeTo(res.SD, res2.SD) {
		t.Errorf("Affine transform changed I: %v vs %v", res, res2)
	}

	if !strings.Contains(res.Report(), "$observed\n[1] ") {
		t.Errorf("Unexpected report:\n%s", res.Report())
	}
}

func TestMoransIErrors(t *testing.T) {
	if _, err := MoransI(lineMatrix(t, 0, 1, 2), []float64{1, 2, 3}, seeded(0)); err == nil {
		t.Errorf("Expected an error with fewer than 4 samples")
	}
	if _, err := MoransI(lineMatrix(t, 0, 1, 1, 2), []float64{1, 2, 3, 4}, seeded(0)); err == nil {
		t.Errorf("Expected an error for a zero off-diagonal distance")
	}
	if _, err := MoransI(lineMatrix(t, 0, 1, 2, 3), []float64{5, 5, 5, 5}, seeded(0)); err == nil {
		t.Errorf("Expected an error for a constant variable")
	}
	if _, err := MoransI(lineMatrix(t, 0, 1, 2, 3), []float64{1, 2}, seeded(0)); err == nil {
		t.Errorf("Expected an error for mismatched lengths")
	}
}

func TestWriteHistogram(t *testing.T) {
	dm := lineMatrix(t, 0, 1, 10, 11, 20, 21)
	res, err := Anosim(dm, []string{"a", "a", "b", "b", "c", "c"}, seeded(50))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteHistogram(&buf, res, 5, 20); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Observed: 1") {
		t.Errorf("Unexpected histogram output:\n%s", buf.String())
	}

	moran, err := MoransI(lineMatrix(t, 0, 1, 2, 3), []float64{1, 2, 3, 4}, seeded(0))
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := WriteHistogram(&buf, moran, 5, 20); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output without a null distribution")
	}
}

func TestParseCentreType(t *testing.T) {
	for in, exp := range map[string]CentreType{"median": SpatialMedian, " Centroid": Centroid} {
		got, err := ParseCentreType(in)
		if err != nil || got != exp {
			t.Errorf("%q: expected %s, got %s (%v)", in, exp, got, err)
		}
	}
	if _, err := ParseCentreType("mode"); err == nil {
		t.Errorf("Expected an error")
	}
}
