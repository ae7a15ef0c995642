//go:build cgo
// +build cgo

package results

import (
	"path/filepath"
	"testing"

	"gopkg.in/guregu/null.v3"
)

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.sqlite")

	rows := []Row{
		{Kind: KindResult, Method: "anosim", Path: "a/anosim_results.txt", Statistic: "R", Effect: null.FloatFrom(0.25), PValue: null.FloatFrom(0.001), N: 1},
		{Kind: KindMedian, Method: "anosim", Statistic: "R", Effect: null.FloatFrom(0.25), N: 1},
	}

	// Writing twice replaces rather than appends.
	for i := 0; i < 2; i++ {
		if err := WriteSQLite(path, rows); err != nil {
			t.Fatal(err)
		}
	}

	back, err := ReadSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(back))
	}
	if back[0].Effect.Float64 != 0.25 || !back[0].PValue.Valid {
		t.Errorf("Unexpected first row %+v", back[0])
	}
	if back[1].PValue.Valid {
		t.Errorf("Expected a NULL p-value, got %+v", back[1].PValue)
	}
}
