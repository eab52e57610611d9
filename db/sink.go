package db

import (
	"database/sql"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
)

// EventSink mirrors the journal into sqlite.
type EventSink struct {
	db *sql.DB
}

func NewEventSink(db *sql.DB) *EventSink {
	return &EventSink{db: db}
}

func (s *EventSink) Record(e eventlog.Entry) error {
	return InsertEvent(s.db, e)
}

func (s *EventSink) Close() error {
	return s.db.Close()
}
