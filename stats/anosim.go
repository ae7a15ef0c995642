package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/carbocation/microbiogeo/distmat"
)

// AnosimResult is the outcome of an analysis of similarities.
type AnosimResult struct {
	R            float64
	P            float64
	Permutations int
	Groups       []string
	Factor       string

	null []float64
}

// Anosim tests whether distances between groups are larger than distances
// within groups, using the ranks of the distances. labels must be aligned with
// the matrix IDs.
func Anosim(dm *distmat.DistanceMatrix, labels []string, opts Options) (*AnosimResult, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}

	n := dm.Size()
	levels, codes, err := checkGroups("anosim", n, labels)
	if err != nil {
		return nil, err
	}

	ranks := averageRanks(dm.Condensed())

	observed := anosimStatistic(n, ranks, codes)

	rng := opts.random()
	null := make([]float64, opts.Permutations)
	for i := range null {
		null[i] = anosimStatistic(n, ranks, shuffled(rng, codes))
	}

	res := &AnosimResult{
		R:            observed,
		P:            permutationPValue(observed, null),
		Permutations: opts.Permutations,
		Groups:       levels,
		Factor:       opts.factor(),
		null:         null,
	}

	log.Debugf("ANOSIM R=%v p=%v over %d samples in %d groups", res.R, res.P, n, len(levels))

	return res, nil
}

// anosimStatistic computes R = (mean between rank - mean within rank) / (N/2),
// where ranks is the condensed rank vector.
func anosimStatistic(n int, ranks []float64, codes []int) float64 {
	var sumWithin, sumBetween float64
	var nWithin, nBetween int

	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if codes[i] == codes[j] {
				sumWithin += ranks[k]
				nWithin++
			} else {
				sumBetween += ranks[k]
				nBetween++
			}
			k++
		}
	}

	if nWithin == 0 || nBetween == 0 {
		return math.NaN()
	}

	divisor := float64(len(ranks)) / 2

	return (sumBetween/float64(nBetween) - sumWithin/float64(nWithin)) / divisor
}

func (r *AnosimResult) Method() string { return "anosim" }
func (r *AnosimResult) Statistic() float64 { return r.R }
func (r *AnosimResult) PValue() float64 { return r.P }
func (r *AnosimResult) Null() []float64 { return r.null }

func (r *AnosimResult) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\nCall:\nanosim(dis = dm, grouping = %s, permutations = %d)\n", r.Factor, r.Permutations)
	fmt.Fprintf(&b, "Dissimilarity: user supplied distance matrix\n\n")
	fmt.Fprintf(&b, "ANOSIM statistic R: %s\n", formatNumber(r.R, 4))
	fmt.Fprintf(&b, "      Significance: %s\n\n", formatNumber(r.P, 4))
	fmt.Fprintf(&b, "Permutation: free\n")
	fmt.Fprintf(&b, "Number of permutations: %d\n\n", r.Permutations)

	return b.String()
}
