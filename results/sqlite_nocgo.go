//go:build !cgo
// +build !cgo

package results

import "fmt"

func WriteSQLite(path string, rows []Row) error {
	return fmt.Errorf("writing %s: SQLite output requires a cgo-enabled build", path)
}

func ReadSQLite(path string) ([]Row, error) {
	return nil, fmt.Errorf("reading %s: SQLite input requires a cgo-enabled build", path)
}
