package categorytest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSamplesInCommon is returned when the distance matrix and the mapping
// file share no sample IDs.
var ErrNoSamplesInCommon = errors.New("no samples in common between distance matrix and mapping file")

// MissingArgumentError names the first required argument that was not given.
type MissingArgumentError struct {
	Flag string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("missing required argument --%s", e.Flag)
}

// HeaderNotFoundError reports a grouping column that is absent from the
// mapping file.
type HeaderNotFoundError struct {
	Column    string
	Available []string
}

func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf("header not found: %q (available columns: %s)", e.Column, strings.Join(e.Available, ", "))
}
