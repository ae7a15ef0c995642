package categorytest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carbocation/microbiogeo/distmat"
	"github.com/carbocation/microbiogeo/stats"
)

// Method is a test that relates the intersected distance matrix to one
// mapping column. values are aligned with the matrix IDs.
type Method interface {
	Name() string
	ResultFile() string
	Run(dm *distmat.DistanceMatrix, values []string, opts stats.Options) (stats.Result, error)
}

type method struct {
	name       string
	resultFile string
	run        func(dm *distmat.DistanceMatrix, values []string, opts stats.Options) (stats.Result, error)
}

func (m method) Name() string       { return m.name }
func (m method) ResultFile() string { return m.resultFile }

func (m method) Run(dm *distmat.DistanceMatrix, values []string, opts stats.Options) (stats.Result, error) {
	return m.run(dm, values, opts)
}

var (
	Anosim Method = method{
		name:       "anosim",
		resultFile: "anosim_results.txt",
		run: func(dm *distmat.DistanceMatrix, values []string, opts stats.Options) (stats.Result, error) {
			res, err := stats.Anosim(dm, values, opts)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}

	Permanova Method = method{
		name:       "permanova",
		resultFile: "permanova_results.txt",
		run: func(dm *distmat.DistanceMatrix, values []string, opts stats.Options) (stats.Result, error) {
			res, err := stats.Permanova(dm, values, opts)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}

	MoransI Method = method{
		name:       "morans_i",
		resultFile: "morans_i_results.txt",
		run: func(dm *distmat.DistanceMatrix, values []string, opts stats.Options) (stats.Result, error) {
			numeric, err := parseNumeric(dm.IDs(), values, opts.Factor)
			if err != nil {
				return nil, err
			}
			res, err := stats.MoransI(dm, numeric, opts)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}
)

// Permdisp tests group dispersions around the given kind of group centre.
func Permdisp(centre stats.CentreType) Method {
	return method{
		name:       "permdisp",
		resultFile: "permdisp_results.txt",
		run: func(dm *distmat.DistanceMatrix, values []string, opts stats.Options) (stats.Result, error) {
			res, err := stats.Permdisp(dm, values, centre, opts)
			if err != nil {
				return nil, err
			}
			return res, nil
		},
	}
}

func parseNumeric(ids, values []string, column string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("sample %s has non-numeric value %q in column %s", ids[i], v, column)
		}
		out[i] = f
	}

	return out, nil
}
