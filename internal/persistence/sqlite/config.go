// SPDX-License-Identifier: MIT

// Package sqlite opens SQLite databases with the operational pragmas every
// store in this module relies on.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// Config defines standard SQLite operational parameters.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int // 1 serializes writers; larger pools read concurrently under WAL
}

// DefaultConfig returns the pool settings used by the catalog.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 25,
	}
}

// dsn carries the pragmas in the query string so they apply to every
// connection the pool opens, not only the first.
func dsn(dbPath string, cfg Config) string {
	pragmas := []string{
		"journal_mode(WAL)",
		fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()),
		"synchronous(NORMAL)",
		"foreign_keys(ON)",
	}
	return "file:" + dbPath + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
}

// Open initializes a SQLite connection pool with WAL journaling, a busy
// timeout, NORMAL sync and enforced foreign keys.
func Open(dbPath string, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(dbPath, cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}
