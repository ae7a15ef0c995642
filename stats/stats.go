// Package stats implements the distance-based tests used to relate a sample
// distance matrix to sample metadata: ANOSIM, PERMANOVA and PERMDISP for
// categorical groupings, Mantel for pairs of matrices and Moran's I for
// numeric gradients. Significance is assessed by permutation.
package stats

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("stats")

// permutationEpsilon absorbs floating point noise when comparing permuted
// statistics to the observed one.
var permutationEpsilon = math.Sqrt(2.220446049250313e-16)

type Options struct {
	// Permutations is the number of random permutations used to build the null
	// distribution. Zero skips permutation testing.
	Permutations int

	// Rand drives the permutations. A time-seeded source is used if nil.
	Rand *rand.Rand

	// Factor names the metadata column in reports.
	Factor string
}

func (o Options) check() error {
	if o.Permutations < 0 {
		return fmt.Errorf("the number of permutations must be non-negative, got %d", o.Permutations)
	}

	return nil
}

func (o Options) random() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}

	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (o Options) factor() string {
	if o.Factor == "" {
		return "grouping"
	}

	return o.Factor
}

// Result is the outcome of any of the tests in this package.
type Result interface {
	// Method is the short name of the test, e.g. "anosim".
	Method() string

	// Statistic is the observed value of the statistic that is permuted.
	Statistic() float64

	// PValue is NaN if it could not be computed.
	PValue() float64

	// Null is the permutation null distribution of the statistic.
	Null() []float64

	// Report is the human-readable text written to result files.
	Report() string
}

// permutationPValue counts permuted statistics at least as extreme as the
// observed one, including the observed value itself.
func permutationPValue(observed float64, null []float64) float64 {
	if len(null) == 0 {
		return math.NaN()
	}

	count := 0
	for _, v := range null {
		if v >= observed-permutationEpsilon {
			count++
		}
	}

	return float64(count+1) / float64(len(null)+1)
}

// FormatPValue renders p with as many decimal places as the number of
// permutations can resolve.
func FormatPValue(p float64, permutations int) string {
	if permutations < 10 {
		return fmt.Sprintf("Too few iters to compute p-value (num_iters=%d)", permutations)
	}

	// floor(log10(permutations+1)), in integer arithmetic.
	decimals := 0
	for v := permutations + 1; v >= 10; v /= 10 {
		decimals++
	}

	return strconv.FormatFloat(p, 'f', decimals, 64)
}

// formatNumber mimics R's default printing with the given number of
// significant digits, showing NA for NaN.
func formatNumber(v float64, digits int) string {
	if math.IsNaN(v) {
		return "NA"
	}

	return strconv.FormatFloat(v, 'g', digits, 64)
}

// factorize maps labels to integer codes. Levels are sorted.
func factorize(labels []string) (levels []string, codes []int) {
	seen := make(map[string]struct{})
	for _, l := range labels {
		if _, exists := seen[l]; !exists {
			seen[l] = struct{}{}
			levels = append(levels, l)
		}
	}
	sort.Strings(levels)

	lookup := make(map[string]int, len(levels))
	for i, l := range levels {
		lookup[l] = i
	}

	codes = make([]int, len(labels))
	for i, l := range labels {
		codes[i] = lookup[l]
	}

	return levels, codes
}

// checkGroups enforces the preconditions shared by the grouping tests.
func checkGroups(method string, n int, labels []string) ([]string, []int, error) {
	if len(labels) != n {
		return nil, nil, fmt.Errorf("%s: %d group labels for %d samples", method, len(labels), n)
	}

	levels, codes := factorize(labels)
	if len(levels) < 2 {
		return nil, nil, fmt.Errorf("%s: at least two groups are required, found %d", method, len(levels))
	}
	if len(levels) == n {
		return nil, nil, fmt.Errorf("%s: every sample is in its own group; at least one group needs two or more samples", method)
	}

	return levels, codes, nil
}

func shuffled(rng *rand.Rand, codes []int) []int {
	out := make([]int, len(codes))
	for i, j := range rng.Perm(len(codes)) {
		out[i] = codes[j]
	}

	return out
}

// averageRanks ranks x from 1, giving tied values the mean of their ranks.
func averageRanks(x []float64) []float64 {
	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return x[order[a]] < x[order[b]] })

	ranks := make([]float64, len(x))
	for i := 0; i < len(order); {
		j := i + 1
		for j < len(order) && x[order[j]] == x[order[i]] {
			j++
		}
		rank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = rank
		}
		i = j
	}

	return ranks
}
