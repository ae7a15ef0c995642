// Package mapping models QIIME-style sample metadata ("mapping") files: a
// header row whose first column holds the sample ID, optional #-prefixed
// comment lines, and one row of string-valued categories per sample.
package mapping

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/microbiogeo"
	"github.com/carbocation/pfx"
	logging "github.com/op/go-logging"
)

var log = logging.MustGetLogger("mapping")

// SampleIDHeader is the conventional name of the first mapping file column.
const SampleIDHeader = "#SampleID"

type Map struct {
	// Delimiter is used by Write. Read sets it to the input's delimiter.
	Delimiter rune

	header   []string
	comments [][]string
	rows     [][]string
	index    map[string]int
}

// Read loads a mapping file from a local, ~/ or gs:// path. Compressed
// inputs are transparently decompressed.
func Read(path string, client *storage.Client) (*Map, error) {
	records, delim, err := microbiogeo.ReadRecords(path, client)
	if err != nil {
		return nil, err
	}

	m, err := Parse(records)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	m.Delimiter = delim

	log.Debugf("Read %d samples and %d categories from %s", m.Len(), len(m.Categories()), path)

	return m, nil
}

// Parse builds a Map from delimited records. The first record is the header.
// Later records whose first field starts with '#' are kept as comments.
func Parse(records [][]string) (*Map, error) {
	if len(records) < 1 || len(records[0]) < 1 {
		return nil, fmt.Errorf("mapping file has no header")
	}

	m := &Map{
		Delimiter: '\t',
		header:    append([]string(nil), records[0]...),
		comments:  make([][]string, 0),
		rows:      make([][]string, 0, len(records)-1),
		index:     make(map[string]int, len(records)-1),
	}

	for i, rec := range records[1:] {
		if len(rec) > 0 && strings.HasPrefix(rec[0], "#") {
			m.comments = append(m.comments, rec)
			continue
		}

		if len(rec) != len(m.header) {
			return nil, fmt.Errorf("line %d has %d fields but the header has %d", i+2, len(rec), len(m.header))
		}

		id := strings.TrimSpace(rec[0])
		if id == "" {
			return nil, fmt.Errorf("line %d has an empty sample ID", i+2)
		}
		if _, exists := m.index[id]; exists {
			return nil, fmt.Errorf("sample ID %q is duplicated (line %d)", id, i+2)
		}

		m.index[id] = len(m.rows)
		m.rows = append(m.rows, append([]string(nil), rec...))
	}

	return m, nil
}

func (m *Map) Len() int {
	return len(m.rows)
}

// Header returns a copy of the header row, including the sample ID column.
func (m *Map) Header() []string {
	return append([]string(nil), m.header...)
}

// Categories returns the metadata column names, excluding the sample ID
// column.
func (m *Map) Categories() []string {
	return append([]string(nil), m.header[1:]...)
}

// Comments returns the comment lines, re-joined with the map's delimiter.
func (m *Map) Comments() []string {
	out := make([]string, 0, len(m.comments))
	for _, c := range m.comments {
		out = append(out, strings.Join(c, string(m.Delimiter)))
	}

	return out
}

// SampleIDs returns sample IDs in file order.
func (m *Map) SampleIDs() []string {
	out := make([]string, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, strings.TrimSpace(row[0]))
	}

	return out
}

func (m *Map) HasSample(id string) bool {
	_, exists := m.index[id]
	return exists
}

// CategoryIndex returns the column position of category, or -1. The sample
// ID column is never matched.
func (m *Map) CategoryIndex(category string) int {
	for i, name := range m.header {
		if i == 0 {
			continue
		}
		if name == category {
			return i
		}
	}

	return -1
}

func (m *Map) HasCategory(category string) bool {
	return m.CategoryIndex(category) >= 0
}

// CategoryValue returns the value of category for one sample.
func (m *Map) CategoryValue(sampleID, category string) (string, error) {
	col := m.CategoryIndex(category)
	if col < 0 {
		return "", fmt.Errorf("category %q is not in the mapping file", category)
	}

	row, exists := m.index[sampleID]
	if !exists {
		return "", fmt.Errorf("sample %q is not in the mapping file", sampleID)
	}

	return m.rows[row][col], nil
}

// CategoryValues returns category's value for each of sampleIDs, in the same
// order.
func (m *Map) CategoryValues(sampleIDs []string, category string) ([]string, error) {
	out := make([]string, 0, len(sampleIDs))
	for _, id := range sampleIDs {
		v, err := m.CategoryValue(id, category)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

// Column returns every value of category in row order.
func (m *Map) Column(category string) ([]string, error) {
	col := m.CategoryIndex(category)
	if col < 0 {
		return nil, fmt.Errorf("category %q is not in the mapping file", category)
	}

	out := make([]string, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row[col])
	}

	return out, nil
}

// InsertColumn places a new column named name at position pos (0 is the
// sample ID column's position). values must hold one entry per sample in
// row order.
func (m *Map) InsertColumn(pos int, name string, values []string) error {
	if pos < 1 || pos > len(m.header) {
		return fmt.Errorf("cannot insert column %q at position %d of %d", name, pos, len(m.header))
	}
	if len(values) != len(m.rows) {
		return fmt.Errorf("column %q has %d values for %d samples", name, len(values), len(m.rows))
	}

	m.header = insert(m.header, pos, name)
	for i := range m.rows {
		m.rows[i] = insert(m.rows[i], pos, values[i])
	}

	return nil
}

// Subset returns a new Map holding only sampleIDs, in that order. Unknown IDs
// are an error.
func (m *Map) Subset(sampleIDs []string) (*Map, error) {
	out := &Map{
		Delimiter: m.Delimiter,
		header:    m.Header(),
		comments:  m.comments,
		rows:      make([][]string, 0, len(sampleIDs)),
		index:     make(map[string]int, len(sampleIDs)),
	}

	for _, id := range sampleIDs {
		row, exists := m.index[id]
		if !exists {
			return nil, fmt.Errorf("sample %q is not in the mapping file", id)
		}
		if _, dup := out.index[id]; dup {
			return nil, fmt.Errorf("sample ID %q requested twice", id)
		}
		out.index[id] = len(out.rows)
		out.rows = append(out.rows, append([]string(nil), m.rows[row]...))
	}

	return out, nil
}

// Write emits the header, the comments and every row in the delimiter the map
// was read with. Tab-delimited values are written verbatim; other delimiters
// are quoted as needed.
func (m *Map) Write(w io.Writer) error {
	if m.Delimiter != 0 && m.Delimiter != '\t' {
		return m.writeCSV(w)
	}

	for _, record := range m.records() {
		if _, err := fmt.Fprintln(w, strings.Join(record, "\t")); err != nil {
			return err
		}
	}

	return nil
}

// writeCSV quotes fields the same way encoding/csv read them.
func (m *Map) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = m.Delimiter

	if err := cw.WriteAll(m.records()); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func (m *Map) records() [][]string {
	out := make([][]string, 0, 1+len(m.comments)+len(m.rows))
	out = append(out, m.header)
	out = append(out, m.comments...)
	out = append(out, m.rows...)

	return out
}

func insert(s []string, pos int, v string) []string {
	out := make([]string, 0, len(s)+1)
	out = append(out, s[:pos]...)
	out = append(out, v)
	out = append(out, s[pos:]...)

	return out
}
