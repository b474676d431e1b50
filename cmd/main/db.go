package main

import (
	"database/sql"
	"fmt"
)

// verifyDB limits the pool to one writer and checks the file can be opened.
func verifyDB(db *sql.DB) (*sql.DB, error) {
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not open stats database: %w", err)
	}
	return db, nil
}
