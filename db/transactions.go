package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

func InsertEvent(db *sql.DB, e eventlog.Entry) error {
	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	if err := InsertEventWithTx(tx, e); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func InsertEventWithTx(tx *sql.Tx, e eventlog.Entry) error {
	_, err := tx.Exec(`INSERT INTO events (occurred_at, message) VALUES (?, ?)`, e.At.UnixNano(), e.Message)
	if err != nil {
		return fmt.Errorf("insert event %q: %w", e.Message, err)
	}
	return nil
}

// DeleteEventsBefore prunes the journal. It is only reachable from the
// bms-events CLI; the controller itself never deletes.
func DeleteEventsBefore(db *sql.DB, cutoff time.Time) (int64, error) {
	tx, err := StartTransaction(db)
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(`DELETE FROM events WHERE occurred_at < ?`, cutoff.UnixNano())
	if err != nil {
		RollbackTransaction(tx)
		return 0, fmt.Errorf("delete events: %w", err)
	}
	if err := CommitTransaction(tx); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
