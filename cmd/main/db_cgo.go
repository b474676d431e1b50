//go:build cgo_sqlite

package main

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// initDB opens the reply log with the cgo driver. The DSN query parameters
// (_journal_mode, _busy_timeout) are understood by go-sqlite3 as written.
func initDB(dataSource string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSource)
	if err != nil {
		return nil, err
	}
	return verifyDB(db)
}
