package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/carbocation/microbiogeo/distmat"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// eigenTolerance drops principal coordinate axes whose eigenvalue is this
// small relative to the largest one.
const eigenTolerance = 1e-7

// CentreType selects how the centre of each group is located in principal
// coordinate space.
type CentreType int

const (
	SpatialMedian CentreType = iota
	Centroid
)

func (c CentreType) String() string {
	switch c {
	case SpatialMedian:
		return "median"
	case Centroid:
		return "centroid"
	}

	return fmt.Sprintf("CentreType(%d)", int(c))
}

// ParseCentreType accepts "median" or "centroid".
func ParseCentreType(s string) (CentreType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "median", "spatial median":
		return SpatialMedian, nil
	case "centroid":
		return Centroid, nil
	}

	return 0, fmt.Errorf("unrecognized centre type %q; choose median or centroid", s)
}

// PermdispResult is the outcome of a test for homogeneity of multivariate
// group dispersions.
type PermdispResult struct {
	Type   CentreType
	Groups []string

	// Distances holds each sample's distance to its group centre, in matrix
	// order.
	Distances []float64

	// MeanDistances is the average distance to centre per group, aligned
	// with Groups.
	MeanDistances []float64

	Eigenvalues []float64

	F            float64
	P            float64
	ParametricP  float64
	DfGroups     int
	DfResiduals  int
	SSGroups     float64
	SSResiduals  float64
	Permutations int
	Factor       string

	null []float64
}

// Permdisp embeds the samples in principal coordinate space, measures each
// sample's distance to its group centre and tests whether those distances
// differ between groups. Significance is assessed by permuting residuals
// around the group means.
func Permdisp(dm *distmat.DistanceMatrix, labels []string, centre CentreType, opts Options) (*PermdispResult, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}

	n := dm.Size()
	levels, codes, err := checkGroups("permdisp", n, labels)
	if err != nil {
		return nil, err
	}

	coords, positive, eigenvalues, err := principalCoordinates(dm)
	if err != nil {
		return nil, err
	}

	z := distancesToCentres(coords, positive, codes, len(levels), centre)

	a := len(levels)
	f, ssb, ssw, means := oneWayANOVA(z, codes, a)

	res := &PermdispResult{
		Type:          centre,
		Groups:        levels,
		Distances:     z,
		MeanDistances: means,
		Eigenvalues:   eigenvalues,
		F:             f,
		DfGroups:      a - 1,
		DfResiduals:   n - a,
		SSGroups:      ssb,
		SSResiduals:   ssw,
		Permutations:  opts.Permutations,
		Factor:        opts.factor(),
	}
	res.ParametricP = distuv.F{D1: float64(a - 1), D2: float64(n - a)}.Survival(f)

	fitted := make([]float64, n)
	resid := make([]float64, n)
	for i, c := range codes {
		fitted[i] = means[c]
		resid[i] = z[i] - means[c]
	}

	rng := opts.random()
	res.null = make([]float64, opts.Permutations)
	permuted := make([]float64, n)
	for k := range res.null {
		for i, j := range rng.Perm(n) {
			permuted[i] = fitted[i] + resid[j]
		}
		res.null[k], _, _, _ = oneWayANOVA(permuted, codes, a)
	}
	res.P = permutationPValue(f, res.null)

	log.Debugf("PERMDISP (%s) F=%v p=%v", centre, f, res.P)

	return res, nil
}

// principalCoordinates performs classical scaling of dm. Coordinates on axes
// with negative eigenvalues are real-valued and flagged in positive, so that
// their contribution can be subtracted.
func principalCoordinates(dm *distmat.DistanceMatrix) (coords [][]float64, positive []bool, eigenvalues []float64, err error) {
	n := dm.Size()

	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := dm.At(i, j)
			a.Set(i, j, -0.5*d*d)
		}
	}

	rowMeans := make([]float64, n)
	var grand float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rowMeans[i] += a.At(i, j)
		}
		grand += rowMeans[i]
		rowMeans[i] /= float64(n)
	}
	grand /= float64(n * n)

	g := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			g.SetSym(i, j, a.At(i, j)-rowMeans[i]-rowMeans[j]+grand)
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(g, true); !ok {
		return nil, nil, nil, fmt.Errorf("permdisp: eigendecomposition of the centred distance matrix failed")
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool { return values[order[x]] > values[order[y]] })

	largest := values[order[0]]
	if largest <= 0 {
		return nil, nil, nil, fmt.Errorf("permdisp: the distance matrix has no positive eigenvalues; are all distances zero?")
	}

	keep := make([]int, 0, len(order))
	for _, k := range order {
		if math.Abs(values[k]/largest) > eigenTolerance {
			keep = append(keep, k)
			eigenvalues = append(eigenvalues, values[k])
			positive = append(positive, values[k] > 0)
		}
	}

	coords = make([][]float64, n)
	for i := range coords {
		coords[i] = make([]float64, len(keep))
		for axis, k := range keep {
			coords[i][axis] = vectors.At(i, k) * math.Sqrt(math.Abs(values[k]))
		}
	}

	return coords, positive, eigenvalues, nil
}

// distancesToCentres locates each group's centre separately on the real and
// imaginary axes and returns sqrt(|d²_real - d²_imaginary|) for each sample.
func distancesToCentres(coords [][]float64, positive []bool, codes []int, groups int, centre CentreType) []float64 {
	members := make([][][]float64, groups)
	for i, c := range codes {
		members[c] = append(members[c], coords[i])
	}

	locate := centroid
	if centre == SpatialMedian {
		locate = spatialMedian
	}

	var posAxes, negAxes []int
	for axis, p := range positive {
		if p {
			posAxes = append(posAxes, axis)
		} else {
			negAxes = append(negAxes, axis)
		}
	}

	centres := make([][]float64, groups)
	for g := range members {
		centres[g] = make([]float64, len(positive))
		for _, axes := range [][]int{posAxes, negAxes} {
			if len(axes) == 0 {
				continue
			}
			c := locate(project(members[g], axes))
			for k, axis := range axes {
				centres[g][axis] = c[k]
			}
		}
	}

	z := make([]float64, len(coords))
	for i, c := range codes {
		var pos, neg float64
		for axis, p := range positive {
			d := coords[i][axis] - centres[c][axis]
			if p {
				pos += d * d
			} else {
				neg += d * d
			}
		}
		z[i] = math.Sqrt(math.Abs(pos - neg))
	}

	return z
}

func project(points [][]float64, axes []int) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = make([]float64, len(axes))
		for k, axis := range axes {
			out[i][k] = p[axis]
		}
	}

	return out
}

func centroid(points [][]float64) []float64 {
	c := make([]float64, len(points[0]))
	for _, p := range points {
		for k, v := range p {
			c[k] += v
		}
	}
	for k := range c {
		c[k] /= float64(len(points))
	}

	return c
}

// spatialMedian finds the point minimising the summed Euclidean distance to
// points with Weiszfeld's algorithm, starting from the centroid. Points that
// coincide with the current estimate are skipped in each step.
func spatialMedian(points [][]float64) []float64 {
	m := centroid(points)
	if len(points) < 3 {
		return m
	}

	next := make([]float64, len(m))
	for iter := 0; iter < 1000; iter++ {
		for k := range next {
			next[k] = 0
		}

		var weight float64
		for _, p := range points {
			d := euclidean(p, m)
			if d < 1e-12 {
				continue
			}
			for k, v := range p {
				next[k] += v / d
			}
			weight += 1 / d
		}
		if weight == 0 {
			break
		}
		for k := range next {
			next[k] /= weight
		}

		moved := euclidean(next, m)
		copy(m, next)
		if moved < 1e-10 {
			break
		}
	}

	return m
}

func euclidean(a, b []float64) float64 {
	var s float64
	for k := range a {
		d := a[k] - b[k]
		s += d * d
	}

	return math.Sqrt(s)
}

// oneWayANOVA returns the F statistic, between- and within-group sums of
// squares, and the group means of x.
func oneWayANOVA(x []float64, codes []int, groups int) (f, ssb, ssw float64, means []float64) {
	means = make([]float64, groups)
	sizes := make([]int, groups)
	var grand float64
	for i, v := range x {
		means[codes[i]] += v
		sizes[codes[i]]++
		grand += v
	}
	grand /= float64(len(x))
	for g := range means {
		means[g] /= float64(sizes[g])
		ssb += float64(sizes[g]) * (means[g] - grand) * (means[g] - grand)
	}
	for i, v := range x {
		d := v - means[codes[i]]
		ssw += d * d
	}

	f = (ssb / float64(groups-1)) / (ssw / float64(len(x)-groups))

	return f, ssb, ssw, means
}

func (r *PermdispResult) Method() string { return "permdisp" }
func (r *PermdispResult) Statistic() float64 { return r.F }
func (r *PermdispResult) PValue() float64 { return r.P }
func (r *PermdispResult) Null() []float64 { return r.null }

func (r *PermdispResult) Report() string {
	var b strings.Builder

	var nPos, nNeg int
	for _, e := range r.Eigenvalues {
		if e > 0 {
			nPos++
		} else {
			nNeg++
		}
	}

	fmt.Fprintf(&b, "\n\tHomogeneity of multivariate dispersions\n\n")
	fmt.Fprintf(&b, "Call: betadisper(d = dm, group = %s, type = \"%s\")\n\n", r.Factor, r.Type)
	fmt.Fprintf(&b, "No. of Positive Eigenvalues: %d\n", nPos)
	fmt.Fprintf(&b, "No. of Negative Eigenvalues: %d\n\n", nNeg)

	fmt.Fprintf(&b, "Average distance to %s:\n", r.Type)
	tw := tabwriter.NewWriter(&b, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(r.Groups, "\t")+"\t")
	means := make([]string, len(r.MeanDistances))
	for i, v := range r.MeanDistances {
		means[i] = formatNumber(v, 4)
	}
	fmt.Fprintln(tw, strings.Join(means, "\t")+"\t")
	tw.Flush()

	fmt.Fprintf(&b, "\nEigenvalues for PCoA axes:\n")
	shown := len(r.Eigenvalues)
	if shown > 8 {
		shown = 8
	}
	tw = tabwriter.NewWriter(&b, 0, 0, 1, ' ', tabwriter.AlignRight)
	axes := make([]string, shown)
	values := make([]string, shown)
	for i := 0; i < shown; i++ {
		axes[i] = fmt.Sprintf("PCoA%d", i+1)
		values[i] = formatNumber(r.Eigenvalues[i], 4)
	}
	fmt.Fprintln(tw, strings.Join(axes, "\t")+"\t")
	fmt.Fprintln(tw, strings.Join(values, "\t")+"\t")
	tw.Flush()

	fmt.Fprintf(&b, "\nPermutation test for homogeneity of multivariate dispersions\n")
	fmt.Fprintf(&b, "Permutation: free\n")
	fmt.Fprintf(&b, "Number of permutations: %d\n\n", r.Permutations)
	fmt.Fprintf(&b, "Response: Distances\n")

	tw = tabwriter.NewWriter(&b, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tDf\tSum Sq\tMean Sq\tF\tN.Perm\tPr(>F)\t")
	fmt.Fprintf(tw, "Groups\t%d\t%s\t%s\t%s\t%d\t%s\t\n", r.DfGroups,
		formatNumber(r.SSGroups, 5), formatNumber(r.SSGroups/float64(r.DfGroups), 5),
		formatNumber(r.F, 5), r.Permutations, formatNumber(r.P, 4))
	fmt.Fprintf(tw, "Residuals\t%d\t%s\t%s\t\t\t\t\n", r.DfResiduals,
		formatNumber(r.SSResiduals, 5), formatNumber(r.SSResiduals/float64(r.DfResiduals), 5))
	tw.Flush()

	fmt.Fprintf(&b, "\nParametric F-test p-value: %s\n", formatNumber(r.ParametricP, 4))

	return b.String()
}
