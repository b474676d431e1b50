//go:build !cgo_sqlite

package main

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

// initDB opens the pure-Go driver. It speaks `_pragma=` rather than the cgo
// driver's `_journal_mode=` style, so those parameters are translated.
func initDB(dataSource string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", nativeDSN(dataSource))
	if err != nil {
		return nil, err
	}
	return verifyDB(db)
}

func nativeDSN(dataSource string) string {
	path, query, found := strings.Cut(dataSource, "?")
	if !found {
		return dataSource
	}
	var params []string
	for _, kv := range strings.Split(query, "&") {
		key, value, _ := strings.Cut(kv, "=")
		switch key {
		case "_journal_mode":
			params = append(params, "_pragma=journal_mode("+value+")")
		case "_busy_timeout":
			params = append(params, "_pragma=busy_timeout("+value+")")
		case "_synchronous":
			params = append(params, "_pragma=synchronous("+value+")")
		default:
			params = append(params, kv)
		}
	}
	return path + "?" + strings.Join(params, "&")
}
