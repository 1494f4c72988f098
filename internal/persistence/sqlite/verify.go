// SPDX-License-Identifier: MIT

package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
)

// VerifyIntegrity checks the SQLite database for structural corruption.
// Mode can be "quick" (PRAGMA quick_check) or "full" (PRAGMA integrity_check).
// It returns the diagnostic rows when corruption is found, or nil if healthy.
func VerifyIntegrity(path string, mode string) ([]string, error) {
	check := "quick_check"
	if mode == "full" {
		check = "integrity_check"
	}

	// Read-only open so verification never takes a write lock.
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_busy_timeout=2000")
	if err != nil {
		return nil, fmt.Errorf("open database read-only: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("PRAGMA " + check + ";")
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", check, err)
	}
	defer rows.Close()

	var findings []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", check, err)
		}
		findings = append(findings, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", check, err)
	}

	// A healthy database answers with exactly one row reading "ok".
	switch {
	case len(findings) == 1 && strings.EqualFold(findings[0], "ok"):
		return nil, nil
	case len(findings) == 0:
		return []string{"no results returned from integrity check"}, nil
	default:
		return findings, nil
	}
}
