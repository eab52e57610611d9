package db

import (
	"fmt"
	"io"
	"time"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
)

func ListEventsCLI(dbPath string, limit int, w io.Writer) error {
	dbConn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	events, err := GetEvents(dbConn, limit)
	if err != nil {
		return err
	}
	return printEvents(w, events)
}

// EventsSinceCLI lists today's events from clock ("HH:MM:SS", local time).
func EventsSinceCLI(dbPath, clock string, now time.Time, w io.Writer) error {
	since, err := ParseClock(clock, now)
	if err != nil {
		return err
	}

	dbConn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	events, err := GetEventsSince(dbConn, since)
	if err != nil {
		return err
	}
	return printEvents(w, events)
}

func PruneEventsCLI(dbPath string, olderThan time.Duration, now time.Time, w io.Writer) error {
	dbConn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	n, err := DeleteEventsBefore(dbConn, now.Add(-olderThan))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "deleted %d events\n", n)
	return err
}

// ParseClock resolves "HH:MM:SS" to that time on now's date.
func ParseClock(clock string, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation(eventlog.TimeFormat, clock, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want HH:MM:SS): %w", clock, err)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, now.Location()), nil
}

func printEvents(w io.Writer, events []eventlog.Entry) error {
	for _, e := range events {
		if _, err := fmt.Fprintln(w, e.Line()); err != nil {
			return err
		}
	}
	return nil
}
