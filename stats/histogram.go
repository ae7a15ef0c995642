package stats

import (
	"fmt"
	"io"
	"math"

	"github.com/aybabtme/uniplot/histogram"
)

// WriteHistogram draws the permutation null distribution of r as a text
// histogram, followed by the observed statistic.
func WriteHistogram(w io.Writer, r Result, bins, width int) error {
	null := make([]float64, 0, len(r.Null()))
	for _, v := range r.Null() {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			null = append(null, v)
		}
	}
	if len(null) == 0 {
		log.Warningf("%s: no permutations were run, so there is no null distribution to plot", r.Method())
		return nil
	}

	hist := histogram.Hist(bins, null)

	if _, err := fmt.Fprintf(w, "Null distribution of the %s statistic (%d permutations):\n", r.Method(), len(null)); err != nil {
		return err
	}
	if err := histogram.Fprint(w, hist, histogram.Linear(width)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Observed: %s\n", formatNumber(r.Statistic(), 6))

	return err
}
