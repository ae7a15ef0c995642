package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/carbocation/microbiogeo/distmat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MoranResult holds Moran's I autocorrelation coefficient of a numeric
// variable, with its expectation and standard deviation under the null
// hypothesis of no autocorrelation.
type MoranResult struct {
	Observed float64
	Expected float64
	SD       float64
	P        float64
	N        int
	Factor   string
}

// MoransI computes Moran's I of values using row-standardised inverse
// distance weights derived from dm. The p-value is two-sided and uses the
// normal approximation under randomisation.
func MoransI(dm *distmat.DistanceMatrix, values []float64, opts Options) (*MoranResult, error) {
	n := dm.Size()
	if len(values) != n {
		return nil, fmt.Errorf("moran's i: %d values for %d samples", len(values), n)
	}
	if n < 4 {
		return nil, fmt.Errorf("moran's i: at least 4 samples are required, got %d", n)
	}
	ids := dm.IDs()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("moran's i: sample %s has non-finite value %v", ids[i], v)
		}
	}

	w := make([][]float64, n)
	for i := range w {
		w[i] = make([]float64, n)
		var rowSum float64
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := dm.At(i, j)
			if d == 0 {
				return nil, fmt.Errorf("moran's i: samples %s and %s are at distance 0, so inverse distance weights are undefined", ids[i], ids[j])
			}
			w[i][j] = 1 / d
			rowSum += w[i][j]
		}
		for j := range w[i] {
			w[i][j] /= rowSum
		}
	}

	mean := stat.Mean(values, nil)
	y := make([]float64, n)
	var v, y4 float64
	for i, x := range values {
		y[i] = x - mean
		v += y[i] * y[i]
		y4 += y[i] * y[i] * y[i] * y[i]
	}
	if v == 0 {
		return nil, fmt.Errorf("moran's i: every sample has the same value, so autocorrelation is undefined")
	}

	var s, cv, s1, s2 float64
	rowSums := make([]float64, n)
	colSums := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s += w[i][j]
			cv += w[i][j] * y[i] * y[j]
			sym := w[i][j] + w[j][i]
			s1 += sym * sym
			rowSums[i] += w[i][j]
			colSums[j] += w[i][j]
		}
	}
	s1 /= 2
	for i := range rowSums {
		t := rowSums[i] + colSums[i]
		s2 += t * t
	}

	fn := float64(n)
	ssq := s * s
	k := (y4 / fn) / ((v / fn) * (v / fn))

	res := &MoranResult{
		Observed: (fn / s) * (cv / v),
		Expected: -1 / (fn - 1),
		N:        n,
		Factor:   opts.factor(),
	}

	variance := (fn*((fn*fn-3*fn+3)*s1-fn*s2+3*ssq)-k*(fn*(fn-1)*s1-2*fn*s2+6*ssq))/
		((fn-1)*(fn-2)*(fn-3)*ssq) - 1/((fn-1)*(fn-1))
	res.SD = math.Sqrt(variance)

	if res.SD > 0 {
		p := distuv.Normal{Mu: res.Expected, Sigma: res.SD}.CDF(res.Observed)
		if res.Observed <= res.Expected {
			res.P = 2 * p
		} else {
			res.P = 2 * (1 - p)
		}
	} else {
		res.P = math.NaN()
	}

	log.Debugf("Moran's I observed=%v expected=%v sd=%v p=%v", res.Observed, res.Expected, res.SD, res.P)

	return res, nil
}

func (r *MoranResult) Method() string { return "morans_i" }
func (r *MoranResult) Statistic() float64 { return r.Observed }
func (r *MoranResult) PValue() float64 { return r.P }
func (r *MoranResult) Null() []float64 { return nil }

func (r *MoranResult) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "$observed\n[1] %s\n\n", formatNumber(r.Observed, 7))
	fmt.Fprintf(&b, "$expected\n[1] %s\n\n", formatNumber(r.Expected, 7))
	fmt.Fprintf(&b, "$sd\n[1] %s\n\n", formatNumber(r.SD, 7))
	fmt.Fprintf(&b, "$p.value\n[1] %s\n\n", formatNumber(r.P, 7))

	return b.String()
}
