//go:build cgo
// +build cgo

package results

import (
	"strings"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS results (
	kind TEXT NOT NULL,
	method TEXT NOT NULL,
	path TEXT NOT NULL,
	statistic TEXT NOT NULL,
	effect_size REAL,
	p_value REAL,
	n INTEGER NOT NULL
)`

// OpenSQLite opens (creating if needed) a SQLite database holding a results
// table.
func OpenSQLite(path string) (*sqlx.DB, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return db, nil
}

// WriteSQLite replaces the contents of the results table at path with rows.
func WriteSQLite(path string, rows []Row) error {
	db, err := OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}

	if _, err := tx.Exec("DELETE FROM results"); err != nil {
		tx.Rollback()
		return pfx.Err(err)
	}

	for _, row := range rows {
		if _, err := tx.NamedExec(`INSERT INTO results (kind, method, path, statistic, effect_size, p_value, n)
VALUES (:kind, :method, :path, :statistic, :effect_size, :p_value, :n)`, row); err != nil {
			tx.Rollback()
			return pfx.Err(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}

	log.Infof("Wrote %d rows to the results table of %s", len(rows), path)

	return nil
}

// ReadSQLite loads every row of the results table at path.
func ReadSQLite(path string) ([]Row, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows []Row
	if err := db.Select(&rows, "SELECT kind, method, path, statistic, effect_size, p_value, n FROM results ORDER BY rowid"); err != nil {
		return nil, pfx.Err(err)
	}

	return rows, nil
}
