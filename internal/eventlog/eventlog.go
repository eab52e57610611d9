// Package eventlog is the human-readable journal of control events
// ("HVAC HEAT", "LIGHTS ON", ...). Entries are timestamped when appended and
// delivered in order to every sink by a single goroutine, so callers holding
// the state lock never wait on disk or network.
package eventlog

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/datadog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
)

const (
	FireAlarmOn  = "FIRE ALARM ON"
	FireAlarmOff = "FIRE ALARM OFF"
	HVACOff      = "HVAC OFF"
	DoorOpen     = "DOOR OPEN"
	DoorClosed   = "DOOR CLOSED"
	LightsOn     = "LIGHTS ON"
	LightsOff    = "LIGHTS OFF"

	TimeFormat = "15:04:05"
)

// HVAC names an HVAC mode change: "HVAC HEAT", "HVAC AC" or "HVAC OFF".
func HVAC(mode model.HVACMode) string {
	return "HVAC " + string(mode)
}

type Entry struct {
	At      time.Time
	Message string
}

// Line renders the entry the way it appears in the log file.
func (e Entry) Line() string {
	return e.At.Format(TimeFormat) + " " + e.Message
}

type Sink interface {
	Record(e Entry) error
	Close() error
}

// Appender is what the controllers log through.
type Appender interface {
	Append(message string)
}

const DefaultBuffer = 256

type Journal struct {
	mu     sync.Mutex
	ch     chan Entry
	sinks  []Sink
	now    func() time.Time
	closed bool
	done   chan struct{}
}

func NewJournal(buffer int, sinks ...Sink) *Journal {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Journal{
		ch:    make(chan Entry, buffer),
		sinks: sinks,
		now:   time.Now,
		done:  make(chan struct{}),
	}
}

// Start launches the delivery goroutine. Close stops it.
func (j *Journal) Start() {
	go j.run()
}

// Append timestamps message and queues it. It only blocks if the queue is
// full, and never on a sink.
func (j *Journal) Append(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		log.Warn().Str("event", message).Msg("Event appended after journal closed")
		return
	}

	e := Entry{At: j.now(), Message: message}
	log.Info().Str("event", message).Msg("Event")
	j.ch <- e
}

// Close delivers everything already queued, then closes every sink.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.ch)
	j.mu.Unlock()

	<-j.done

	var firstErr error
	for _, s := range j.sinks {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close event sink")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (j *Journal) run() {
	defer close(j.done)

	for e := range j.ch {
		for _, s := range j.sinks {
			if err := s.Record(e); err != nil {
				log.Warn().Err(err).Str("event", e.Message).Msg("Failed to record event")
			}
		}
		datadog.Count("events.count", 1, "event:"+e.Message)
	}
}
