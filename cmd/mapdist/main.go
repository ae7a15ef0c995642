// mapdist builds a distance matrix from one numeric or date-valued mapping
// file column: the distance between two samples is the absolute difference
// of their values. Dates are measured in days. Samples with a missing value
// are left out.
package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/distmat"
	"github.com/carbocation/microbiogeo/mapping"
	logging "github.com/op/go-logging"
	"github.com/spf13/pflag"

	_ "github.com/carbocation/microbiogeo/compileinfoprint"
)

var log = logging.MustGetLogger("mapdist")

func main() {
	var input, category, output string
	var dates, quiet bool

	pflag.StringVarP(&input, "input", "i", "", "Mapping file (required). Local, ~/ or gs:// paths; may be compressed.")
	pflag.StringVarP(&category, "category", "c", "", "Numeric or date-valued column (required)")
	pflag.StringVarP(&output, "output", "o", "", "Path for the distance matrix (required)")
	pflag.BoolVar(&dates, "dates", false, "Parse every value as a date, even ones that look like numbers (e.g. 20061218)")
	pflag.BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	pflag.Parse()

	microbiogeo.SetupLogging(quiet)

	for _, required := range []struct{ flag, value string }{
		{"input", input},
		{"category", category},
		{"output", output},
	} {
		if required.value == "" {
			pflag.Usage()
			log.Fatalf("missing required argument --%s", required.flag)
		}
	}

	if err := run(input, category, output, dates); err != nil {
		log.Fatal(err)
	}
}

func run(input, category, output string, dates bool) error {
	client, err := microbiogeo.MaybeStorageClient(context.Background(), input)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	m, err := mapping.Read(input, client)
	if err != nil {
		return err
	}

	dm, err := fromColumn(m, category, dates)
	if err != nil {
		return err
	}

	if err := microbiogeo.WriteFileAtomic(output, dm.Write); err != nil {
		return err
	}

	log.Infof("Wrote a %dx%d distance matrix on %s to %s", dm.Size(), dm.Size(), category, output)

	return nil
}

// fromColumn converts every usable value of category and builds the matrix of
// pairwise absolute differences.
func fromColumn(m *mapping.Map, category string, dates bool) (*distmat.DistanceMatrix, error) {
	values, err := m.Column(category)
	if err != nil {
		return nil, err
	}

	var ids []string
	var numeric []float64
	for i, id := range m.SampleIDs() {
		raw := strings.TrimSpace(values[i])
		if isMissing(raw) {
			log.Warningf("Sample %s has no value for %s; leaving it out", id, category)
			continue
		}

		v, err := parseValue(raw, dates)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", id, err)
		}

		ids = append(ids, id)
		numeric = append(numeric, v)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no sample has a value for %s", category)
	}

	return distmat.FromValues(ids, numeric)
}

func isMissing(v string) bool {
	switch strings.ToUpper(v) {
	case "", "NA", "N/A", "NAN", "NONE", "UNKNOWN":
		return true
	}

	return false
}

// parseValue reads v as a number or, failing that (or if dates is set), as a
// date, which is converted to days since the Unix epoch.
func parseValue(v string, dates bool) (float64, error) {
	if !dates {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
	}

	t, err := dateparse.ParseAny(v)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a number nor a recognized date", v)
	}

	return float64(t.Unix()) / (24 * time.Hour).Seconds(), nil
}
