package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/carbocation/microbiogeo/distmat"
	"gonum.org/v1/gonum/stat"
)

// TailType selects the alternative hypothesis of a Mantel test.
type TailType string

const (
	TwoSided TailType = "two sided"
	Greater  TailType = "greater"
	Less     TailType = "less"
)

// ParseTailType accepts the tail names used on the command line.
func ParseTailType(s string) (TailType, error) {
	switch t := TailType(strings.ToLower(strings.TrimSpace(s))); t {
	case TwoSided, Greater, Less:
		return t, nil
	}

	return "", fmt.Errorf("unrecognized tail type %q; choose one of %q, %q or %q", s, TwoSided, Greater, Less)
}

// MantelResult is the outcome of a Mantel test between two matrices.
type MantelResult struct {
	R            float64
	P            float64
	N            int
	Permutations int
	Tail         TailType

	null []float64
}

// Mantel correlates the distances of two matrices over the same samples. The
// rows and columns of the second matrix are permuted together to build the
// null distribution of Pearson's r.
func Mantel(dm1, dm2 *distmat.DistanceMatrix, tail TailType, opts Options) (*MantelResult, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if _, err := ParseTailType(string(tail)); err != nil {
		return nil, err
	}

	n := dm1.Size()
	if dm2.Size() != n {
		return nil, fmt.Errorf("mantel: matrices have different sizes (%d and %d)", n, dm2.Size())
	}
	ids1, ids2 := dm1.IDs(), dm2.IDs()
	for i := range ids1 {
		if ids1[i] != ids2[i] {
			return nil, fmt.Errorf("mantel: sample %d is %s in the first matrix but %s in the second", i, ids1[i], ids2[i])
		}
	}
	if n < 3 {
		return nil, fmt.Errorf("mantel: at least 3 samples are required, got %d", n)
	}

	x := dm1.Condensed()
	y := dm2.Condensed()

	res := &MantelResult{
		R:            pearson(x, y),
		N:            n,
		Permutations: opts.Permutations,
		Tail:         tail,
	}

	rng := opts.random()
	res.null = make([]float64, opts.Permutations)
	permuted := make([]float64, len(y))
	for k := range res.null {
		perm := rng.Perm(n)
		c := 0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				permuted[c] = dm2.At(perm[i], perm[j])
				c++
			}
		}
		res.null[k] = pearson(x, permuted)
	}

	res.P = mantelPValue(res.R, res.null, tail)

	log.Debugf("Mantel r=%v p=%v (%s) over %d samples", res.R, res.P, tail, n)

	return res, nil
}

// pearson is Pearson's r, or 0 when either vector has no variance.
func pearson(x, y []float64) float64 {
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}

	return math.Max(-1, math.Min(1, r))
}

func mantelPValue(observed float64, null []float64, tail TailType) float64 {
	switch tail {
	case Greater:
		return permutationPValue(observed, null)
	case Less:
		flipped := make([]float64, len(null))
		for i, v := range null {
			flipped[i] = -v
		}
		return permutationPValue(-observed, flipped)
	}

	abs := make([]float64, len(null))
	for i, v := range null {
		abs[i] = math.Abs(v)
	}

	return permutationPValue(math.Abs(observed), abs)
}

func (r *MantelResult) Method() string { return "mantel" }
func (r *MantelResult) Statistic() float64 { return r.R }
func (r *MantelResult) PValue() float64 { return r.P }
func (r *MantelResult) Null() []float64 { return r.null }

func (r *MantelResult) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Mantel statistic r: %s\n", formatNumber(r.R, 6))
	fmt.Fprintf(&b, "      Significance: %s\n", FormatPValue(r.P, r.Permutations))
	fmt.Fprintf(&b, "Number of entries: %d\n", r.N)
	fmt.Fprintf(&b, "Number of permutations: %d\n", r.Permutations)
	fmt.Fprintf(&b, "Tail type: %s\n", r.Tail)

	return b.String()
}
