package microbiogeo

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// ReadAllBytes loads the whole of path (local, ~/ or gs://) into memory,
// decompressing it if it carries a known compression signature.
func ReadAllBytes(path string, client *storage.Client) ([]byte, error) {
	f, _, err := MaybeOpenFromGoogleStorage(path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	r, dt, err := MaybeDecompressReadCloser(bytes.NewReader(raw))
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	defer r.Close()

	if dt != DataTypeNoCompression {
		log.Debugf("Reading %s as %s", path, dt)
	}

	return io.ReadAll(r)
}

// ReadRecords loads path and splits it into delimited records. Rows may have
// differing numbers of fields; callers validate shape themselves. The
// delimiter is tab whenever the first line contains one, and is otherwise
// detected.
func ReadRecords(path string, client *storage.Client) ([][]string, rune, error) {
	data, err := ReadAllBytes(path, client)
	if err != nil {
		return nil, 0, err
	}

	records, delim, err := ParseRecords(data)
	if err != nil {
		return nil, 0, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return records, delim, nil
}

// ParseRecords splits in-memory delimited text into records. Tab-delimited
// text is split verbatim, without quote handling, so that values round-trip
// byte for byte; other delimiters go through encoding/csv.
func ParseRecords(data []byte) ([][]string, rune, error) {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	if bytes.ContainsRune(firstLine, '\t') {
		return splitTabs(data), '\t', nil
	}

	delim := DetermineDelimiter(bytes.NewReader(data))
	if delim == '\t' {
		return splitTabs(data), delim, nil
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, delim, err
	}

	return records, delim, nil
}

func splitTabs(data []byte) [][]string {
	records := make([][]string, 0)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		records = append(records, strings.Split(line, "\t"))
	}

	return records
}
