// Package distmat holds labeled, square, symmetric, hollow sample-by-sample
// distance matrices in the QIIME text layout:
//
//	<tab>S1<tab>S2
//	S1<tab>0.0<tab>0.5
//	S2<tab>0.5<tab>0.0
package distmat

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/pfx"
	logging "github.com/op/go-logging"
	"gonum.org/v1/gonum/mat"
)

var log = logging.MustGetLogger("distmat")

// symmetryTolerance is the relative difference allowed between d(i,j) and
// d(j,i) in parsed input.
const symmetryTolerance = 1e-8

type DistanceMatrix struct {
	ids   []string
	index map[string]int
	data  *mat.SymDense
}

// New wraps data, whose rows and columns are labeled by ids. data must be
// hollow and non-negative.
func New(ids []string, data *mat.SymDense) (*DistanceMatrix, error) {
	if len(ids) < 1 {
		return nil, fmt.Errorf("a distance matrix must be at least 1x1")
	}
	if data.Symmetric() != len(ids) {
		return nil, fmt.Errorf("%d labels for a %dx%d matrix", len(ids), data.Symmetric(), data.Symmetric())
	}

	dm := &DistanceMatrix{
		ids:   append([]string(nil), ids...),
		index: make(map[string]int, len(ids)),
		data:  data,
	}

	for i, id := range ids {
		if _, exists := dm.index[id]; exists {
			return nil, fmt.Errorf("sample ID %q is duplicated", id)
		}
		dm.index[id] = i
	}

	for i := range ids {
		if v := data.At(i, i); v != 0 {
			return nil, fmt.Errorf("the distance from %s to itself is %v; distance matrices must be hollow", ids[i], v)
		}
		for j := i + 1; j < len(ids); j++ {
			v := data.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return nil, fmt.Errorf("invalid distance %v between %s and %s", v, ids[i], ids[j])
			}
		}
	}

	return dm, nil
}

// Read loads a distance matrix from a local, ~/ or gs:// path, transparently
// decompressing it.
func Read(path string, client *storage.Client) (*DistanceMatrix, error) {
	records, _, err := microbiogeo.ReadRecords(path, client)
	if err != nil {
		return nil, err
	}

	dm, err := Parse(records)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	log.Debugf("Read a %dx%d distance matrix from %s", dm.Size(), dm.Size(), path)

	return dm, nil
}

// Parse builds a distance matrix from delimited records. The first record is
// the column labels, preceded by one ignored cell. Each following record is a
// row label and its distances. Row labels must equal column labels, in order.
func Parse(records [][]string) (*DistanceMatrix, error) {
	if len(records) < 1 {
		return nil, fmt.Errorf("the distance matrix is empty")
	}

	labels := make([]string, 0, len(records[0]))
	for _, v := range records[0][1:] {
		labels = append(labels, strings.TrimSpace(v))
	}
	n := len(labels)
	if n < 1 {
		return nil, fmt.Errorf("the distance matrix header has no sample IDs")
	}
	if len(records)-1 != n {
		return nil, fmt.Errorf("the distance matrix must be square: %d columns but %d rows", n, len(records)-1)
	}

	raw := make([]float64, n*n)
	for i, rec := range records[1:] {
		if len(rec) != n+1 {
			return nil, fmt.Errorf("row %d has %d distances, expected %d", i+1, len(rec)-1, n)
		}
		if id := strings.TrimSpace(rec[0]); id != labels[i] {
			return nil, fmt.Errorf("row %d is labeled %q but column %d is labeled %q; row and column IDs must match", i+1, id, i+1, labels[i])
		}
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("row %s, column %s: %w", labels[i], labels[j], err)
			}
			raw[i*n+j] = v
		}
	}

	data := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a, b := raw[i*n+j], raw[j*n+i]
			if math.Abs(a-b) > symmetryTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
				return nil, fmt.Errorf("the distance matrix is not symmetric: d(%s,%s)=%v but d(%s,%s)=%v", labels[i], labels[j], a, labels[j], labels[i], b)
			}
			data.SetSym(i, j, a)
		}
	}

	return New(labels, data)
}

// FromValues builds the matrix of absolute differences between the values of
// each pair of samples.
func FromValues(ids []string, values []float64) (*DistanceMatrix, error) {
	if len(ids) != len(values) {
		return nil, fmt.Errorf("%d sample IDs but %d values", len(ids), len(values))
	}

	data := mat.NewSymDense(len(ids), nil)
	for i := range values {
		for j := i + 1; j < len(values); j++ {
			data.SetSym(i, j, math.Abs(values[i]-values[j]))
		}
	}

	return New(ids, data)
}

// IDs returns the row/column labels in matrix order.
func (dm *DistanceMatrix) IDs() []string {
	return append([]string(nil), dm.ids...)
}

func (dm *DistanceMatrix) Size() int {
	return len(dm.ids)
}

func (dm *DistanceMatrix) At(i, j int) float64 {
	return dm.data.At(i, j)
}

// Index returns the position of sample id.
func (dm *DistanceMatrix) Index(id string) (int, bool) {
	i, exists := dm.index[id]
	return i, exists
}

// Distance looks up the distance between two samples by ID.
func (dm *DistanceMatrix) Distance(a, b string) (float64, error) {
	i, ok := dm.index[a]
	if !ok {
		return 0, fmt.Errorf("sample %q is not in the distance matrix", a)
	}
	j, ok := dm.index[b]
	if !ok {
		return 0, fmt.Errorf("sample %q is not in the distance matrix", b)
	}

	return dm.data.At(i, j), nil
}

// Symmetric exposes the distances as a read-only gonum matrix.
func (dm *DistanceMatrix) Symmetric() mat.Symmetric {
	return dm.data
}

// Relabel returns a copy of the matrix with every ID found in lookup replaced
// by its mapped value. IDs absent from lookup are kept.
func (dm *DistanceMatrix) Relabel(lookup map[string]string) (*DistanceMatrix, error) {
	ids := make([]string, len(dm.ids))
	for i, id := range dm.ids {
		if renamed, exists := lookup[id]; exists {
			ids[i] = renamed
		} else {
			ids[i] = id
		}
	}

	data := mat.NewSymDense(len(ids), nil)
	data.CopySym(dm.data)

	return New(ids, data)
}

// Subset returns the matrix restricted to ids, in the order given.
func (dm *DistanceMatrix) Subset(ids []string) (*DistanceMatrix, error) {
	pos := make([]int, 0, len(ids))
	for _, id := range ids {
		i, exists := dm.index[id]
		if !exists {
			return nil, fmt.Errorf("sample %q is not in the distance matrix", id)
		}
		pos = append(pos, i)
	}

	data := mat.NewSymDense(len(ids), nil)
	for i := range pos {
		for j := i; j < len(pos); j++ {
			data.SetSym(i, j, dm.data.At(pos[i], pos[j]))
		}
	}

	return New(ids, data)
}

// Condensed returns the upper triangle, excluding the diagonal, in row-major
// order: d(0,1), d(0,2), ..., d(1,2), ...
func (dm *DistanceMatrix) Condensed() []float64 {
	n := len(dm.ids)
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, dm.data.At(i, j))
		}
	}

	return out
}

// Write emits the matrix in QIIME layout, tab-delimited.
func (dm *DistanceMatrix) Write(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "\t"+strings.Join(dm.ids, "\t")); err != nil {
		return err
	}

	row := make([]string, len(dm.ids)+1)
	for i, id := range dm.ids {
		row[0] = id
		for j := range dm.ids {
			row[j+1] = strconv.FormatFloat(dm.data.At(i, j), 'g', -1, 64)
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return nil
}
