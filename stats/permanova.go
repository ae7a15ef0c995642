package stats

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/carbocation/microbiogeo/distmat"
)

// PermanovaResult is the outcome of a one-factor permutational multivariate
// analysis of variance on a distance matrix.
type PermanovaResult struct {
	F            float64
	R2           float64
	P            float64
	DfGroups     int
	DfResiduals  int
	SSGroups     float64
	SSResiduals  float64
	SSTotal      float64
	Permutations int
	Factor       string

	null []float64
}

// Permanova partitions the squared distances into within- and between-group
// sums of squares and tests the pseudo-F statistic by permuting labels.
func Permanova(dm *distmat.DistanceMatrix, labels []string, opts Options) (*PermanovaResult, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}

	n := dm.Size()
	levels, codes, err := checkGroups("permanova", n, labels)
	if err != nil {
		return nil, err
	}

	sq := dm.Condensed()
	for i, v := range sq {
		sq[i] = v * v
	}

	var total float64
	for _, v := range sq {
		total += v
	}
	total /= float64(n)

	a := len(levels)
	within := withinSumOfSquares(n, a, sq, codes)

	res := &PermanovaResult{
		DfGroups:     a - 1,
		DfResiduals:  n - a,
		SSTotal:      total,
		SSResiduals:  within,
		SSGroups:     total - within,
		Permutations: opts.Permutations,
		Factor:       opts.factor(),
	}
	res.F = pseudoF(total, within, a, n)
	res.R2 = res.SSGroups / total

	rng := opts.random()
	res.null = make([]float64, opts.Permutations)
	for i := range res.null {
		res.null[i] = pseudoF(total, withinSumOfSquares(n, a, sq, shuffled(rng, codes)), a, n)
	}
	res.P = permutationPValue(res.F, res.null)

	log.Debugf("PERMANOVA F=%v R2=%v p=%v", res.F, res.R2, res.P)

	return res, nil
}

// withinSumOfSquares sums, for each group, the squared within-group distances
// divided by the group size. sq is the condensed vector of squared distances.
func withinSumOfSquares(n, a int, sq []float64, codes []int) float64 {
	sums := make([]float64, a)
	sizes := make([]int, a)
	for _, c := range codes {
		sizes[c]++
	}

	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if codes[i] == codes[j] {
				sums[codes[i]] += sq[k]
			}
			k++
		}
	}

	var out float64
	for g := range sums {
		out += sums[g] / float64(sizes[g])
	}

	return out
}

func pseudoF(total, within float64, a, n int) float64 {
	return ((total - within) / float64(a-1)) / (within / float64(n-a))
}

func (r *PermanovaResult) Method() string { return "permanova" }
func (r *PermanovaResult) Statistic() float64 { return r.F }
func (r *PermanovaResult) PValue() float64 { return r.P }
func (r *PermanovaResult) Null() []float64 { return r.null }

func (r *PermanovaResult) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\nCall:\nadonis(formula = dm ~ %s, permutations = %d)\n\n", r.Factor, r.Permutations)
	fmt.Fprintf(&b, "Permutation: free\n")
	fmt.Fprintf(&b, "Number of permutations: %d\n\n", r.Permutations)
	fmt.Fprintf(&b, "Terms added sequentially (first to last)\n\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tDf\tSumsOfSqs\tMeanSqs\tF.Model\tR2\tPr(>F)\t")
	fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t\n", r.Factor, r.DfGroups,
		formatNumber(r.SSGroups, 5), formatNumber(r.SSGroups/float64(r.DfGroups), 5),
		formatNumber(r.F, 5), formatNumber(r.R2, 5), formatNumber(r.P, 4))
	fmt.Fprintf(tw, "Residuals\t%d\t%s\t%s\t\t%s\t\t\n", r.DfResiduals,
		formatNumber(r.SSResiduals, 5), formatNumber(r.SSResiduals/float64(r.DfResiduals), 5),
		formatNumber(r.SSResiduals/r.SSTotal, 5))
	fmt.Fprintf(tw, "Total\t%d\t%s\t\t\t%s\t\t\n", r.DfGroups+r.DfResiduals,
		formatNumber(r.SSTotal, 5), formatNumber(1, 5))
	tw.Flush()

	return b.String()
}
