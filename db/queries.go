package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
)

// GetEvents returns the newest limit events, oldest first.
func GetEvents(db *sql.DB, limit int) ([]eventlog.Entry, error) {
	rows, err := db.Query(`
		SELECT occurred_at, message FROM (
			SELECT id, occurred_at, message FROM events ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetEventsSince returns every event at or after since, oldest first.
func GetEventsSince(db *sql.DB, since time.Time) ([]eventlog.Entry, error) {
	rows, err := db.Query(`SELECT occurred_at, message FROM events WHERE occurred_at >= ? ORDER BY id ASC`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query events since %s: %w", since.Format(time.RFC3339), err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func CountEvents(db *sql.DB, message string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM events WHERE message = ?`, message).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %q events: %w", message, err)
	}
	return n, nil
}

func scanEvents(rows *sql.Rows) ([]eventlog.Entry, error) {
	var events []eventlog.Entry
	for rows.Next() {
		var nanos int64
		var e eventlog.Entry
		if err := rows.Scan(&nanos, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.At = time.Unix(0, nanos)
		events = append(events, e)
	}
	return events, rows.Err()
}
