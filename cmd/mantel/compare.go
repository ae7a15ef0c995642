package main

import (
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/microbiogeo/distmat"
	"github.com/carbocation/microbiogeo/stats"
)

// minSamples is the smallest number of shared samples for which a Mantel
// correlation is computed.
const minSamples = 3

var tableHeader = []string{"DM1", "DM2", "Number of entries", "Mantel r statistic", "p-value", "Number of permutations", "Tail type"}

type comparison struct {
	Path1, Path2 string
	N            int
	Result       *stats.MantelResult
}

// readSampleIDMap loads a two-column file mapping original sample IDs to the
// IDs used for matching. Extra columns are ignored.
func readSampleIDMap(path string, client *storage.Client) (map[string]string, error) {
	records, _, err := microbiogeo.ReadRecords(path, client)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(records))
	for i, rec := range records {
		if strings.HasPrefix(rec[0], "#") {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("%s line %d: expected two columns, found %d", path, i+1, len(rec))
		}
		out[strings.TrimSpace(rec[0])] = strings.TrimSpace(rec[1])
	}

	return out, nil
}

// compatible restricts both matrices to their shared samples, in dm1's order.
// The matrices are nil if fewer than minSamples samples are shared.
func compatible(dm1, dm2 *distmat.DistanceMatrix) (*distmat.DistanceMatrix, *distmat.DistanceMatrix, int, error) {
	shared := make([]string, 0, dm1.Size())
	for _, id := range dm1.IDs() {
		if _, exists := dm2.Index(id); exists {
			shared = append(shared, id)
		}
	}
	if len(shared) < minSamples {
		return nil, nil, len(shared), nil
	}

	sub1, err := dm1.Subset(shared)
	if err != nil {
		return nil, nil, 0, err
	}
	sub2, err := dm2.Subset(shared)
	if err != nil {
		return nil, nil, 0, err
	}

	return sub1, sub2, len(shared), nil
}

// compareAll runs a Mantel test for every pair of matrices. Pairs sharing
// fewer than minSamples samples get a comparison without a result.
func compareAll(paths []string, dms []*distmat.DistanceMatrix, tail stats.TailType, permutations int, rng *rand.Rand) ([]comparison, error) {
	var out []comparison

	for i := range dms {
		for j := i + 1; j < len(dms); j++ {
			c := comparison{Path1: paths[i], Path2: paths[j]}

			sub1, sub2, n, err := compatible(dms[i], dms[j])
			if err != nil {
				return nil, fmt.Errorf("%s vs %s: %w", paths[i], paths[j], err)
			}
			c.N = n

			if sub1 == nil {
				log.Warningf("%s and %s share only %d samples; skipping", paths[i], paths[j], n)
				out = append(out, c)
				continue
			}

			res, err := stats.Mantel(sub1, sub2, tail, stats.Options{Permutations: permutations, Rand: rng})
			if err != nil {
				return nil, fmt.Errorf("%s vs %s: %w", paths[i], paths[j], err)
			}
			log.Debugf("%s vs %s:\n%s", paths[i], paths[j], res.Report())

			c.Result = res
			out = append(out, c)
		}
	}

	return out, nil
}

func writeTable(w io.Writer, comparisons []comparison, tail stats.TailType, permutations int) error {
	if _, err := fmt.Fprintf(w, "# Mantel test of Pearson's r between pairs of distance matrices (%s, %d permutations).\n", tail, permutations); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(tableHeader, "\t")); err != nil {
		return err
	}

	for _, c := range comparisons {
		var row []string
		if c.Result == nil {
			row = []string{c.Path1, c.Path2, strconv.Itoa(c.N), "Too few samples"}
		} else {
			row = []string{
				c.Path1,
				c.Path2,
				strconv.Itoa(c.N),
				strconv.FormatFloat(c.Result.R, 'g', 12, 64),
				stats.FormatPValue(c.Result.P, permutations),
				strconv.Itoa(permutations),
				string(tail),
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return nil
}
