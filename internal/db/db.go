package db

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// DB persists schedules, points and devices in SQLite. It satisfies the
// store.Schedules, store.Ledger and store.Devices interfaces.
type DB struct {
	conn    *sql.DB
	periods int
}

// Open opens (or creates) the database at path. Schedules written through
// it must have exactly periods labels.
func Open(path string, periods int) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: ":memory:" databases are per-connection, and SQLite
	// serialises writers anyway.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &DB{conn: conn, periods: periods}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}
