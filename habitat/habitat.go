// Package habitat derives the coarse body habitat of a sample from its
// ENV_MATTER annotation.
package habitat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/carbocation/microbiogeo/mapping"
)

type BodyHabitat string

const (
	Gut       BodyHabitat = "gut"
	Oral      BodyHabitat = "oral"
	SkinOther BodyHabitat = "skin/other"
)

const (
	// SourceColumn is the controlled-vocabulary column read by Derive.
	SourceColumn = "ENV_MATTER"

	// TargetColumn is the name given to the derived column.
	TargetColumn = "body_habitat_basic"

	envoPrefix = "ENVO:"
)

// bodyHabitats is fixed for the life of the process.
var bodyHabitats = map[string]BodyHabitat{
	"feces":         Gut,
	"saliva":        Oral,
	"dental plaque": Oral,
	"mucus":         SkinOther,
	"sebum":         SkinOther,
	"sweat":         SkinOther,
	"ear wax":       SkinOther,
}

// UnknownTermError is returned for an ENV_MATTER value that has no entry in the
// lookup table.
type UnknownTermError struct {
	Term string
}

func (e *UnknownTermError) Error() string {
	return fmt.Sprintf("ENV_MATTER term %q has no body habitat; known terms are: %s", e.Term, strings.Join(Terms(), ", "))
}

// Lookup maps one ENV_MATTER value to its body habitat. An "ENVO:" prefix and
// surrounding whitespace are ignored.
func Lookup(term string) (BodyHabitat, error) {
	key := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(term), envoPrefix))

	bh, exists := bodyHabitats[key]
	if !exists {
		return "", &UnknownTermError{Term: term}
	}

	return bh, nil
}

// Terms lists the known ENV_MATTER terms, sorted.
func Terms() []string {
	out := make([]string, 0, len(bodyHabitats))
	for k := range bodyHabitats {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// Derive looks up every value of the source column and inserts the results as
// a column named target, immediately before the last existing column. On any
// unknown term m is left untouched.
func Derive(m *mapping.Map, source, target string) error {
	values, err := m.Column(source)
	if err != nil {
		return err
	}

	derived := make([]string, 0, len(values))
	for _, v := range values {
		bh, err := Lookup(v)
		if err != nil {
			return err
		}
		derived = append(derived, string(bh))
	}

	return m.InsertColumn(len(m.Header())-1, target, derived)
}
