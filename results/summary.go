package results

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/montanaflynn/stats"
	"gopkg.in/guregu/null.v3"
)

const (
	KindResult = "result"
	KindMedian = "median"
)

// Row is one line of a summary table. Median rows aggregate every result of
// one method; N is the number of results they summarize.
type Row struct {
	Kind      string     `csv:"kind" db:"kind"`
	Method    string     `csv:"method" db:"method"`
	Path      string     `csv:"path" db:"path"`
	Statistic string     `csv:"statistic" db:"statistic"`
	Effect    null.Float `csv:"effect_size" db:"effect_size"`
	PValue    null.Float `csv:"p_value" db:"p_value"`
	N         int        `csv:"n" db:"n"`
}

// Summarize turns results into one row each, ordered by method then path,
// followed by one median row per method.
func Summarize(results []Result) []Row {
	sorted := append([]Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Method != sorted[j].Method {
			return sorted[i].Method < sorted[j].Method
		}
		return sorted[i].Path < sorted[j].Path
	})

	rows := make([]Row, 0, len(sorted))
	effects := make(map[string][]float64)
	pvalues := make(map[string][]float64)
	counts := make(map[string]int)
	statNames := make(map[string]string)
	var methods []string

	for _, r := range sorted {
		rows = append(rows, Row{
			Kind:      KindResult,
			Method:    r.Method,
			Path:      r.Path,
			Statistic: r.StatisticName,
			Effect:    r.Statistic,
			PValue:    r.PValue,
			N:         1,
		})

		if _, seen := counts[r.Method]; !seen {
			methods = append(methods, r.Method)
		}
		counts[r.Method]++
		statNames[r.Method] = r.StatisticName
		if r.Statistic.Valid {
			effects[r.Method] = append(effects[r.Method], r.Statistic.Float64)
		}
		if r.PValue.Valid {
			pvalues[r.Method] = append(pvalues[r.Method], r.PValue.Float64)
		}
	}

	for _, m := range methods {
		rows = append(rows, Row{
			Kind:      KindMedian,
			Method:    m,
			Statistic: statNames[m],
			Effect:    median(effects[m]),
			PValue:    median(pvalues[m]),
			N:         counts[m],
		})
	}

	return rows
}

func median(x []float64) null.Float {
	if len(x) == 0 {
		return null.Float{}
	}

	m, err := stats.Median(x)
	if err != nil {
		log.Warningf("Could not compute a median: %v", err)
		return null.Float{}
	}

	return null.FloatFrom(m)
}

// WriteTSV writes rows with a header line. Missing values are empty.
func WriteTSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	return gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw))
}

// ReadTSV reads a table written by WriteTSV.
func ReadTSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	var rows []Row
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}
