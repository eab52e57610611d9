// Package mqtt mirrors journal events and controller lifecycle to a broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
)

// Publisher publishes controller events to MQTT.
type Publisher interface {
	PublishEvent(e eventlog.Entry) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// SystemEvent is a lifecycle event such as STARTUP, SHUTDOWN or OFFLINE.
type SystemEvent struct {
	Timestamp time.Time
	Event     string
	Reason    string
}

type Topics struct {
	Events string
	System string
}

func TopicsFor(base string) Topics {
	return Topics{Events: base + "/events", System: base + "/system"}
}

type EventPayload struct {
	Event EventPayloadInner `json:"event"`
}

type EventPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

func FormatEventPayload(e eventlog.Entry) ([]byte, error) {
	return json.Marshal(EventPayload{
		Event: EventPayloadInner{
			Timestamp: e.At.UTC().Format(time.RFC3339),
			Message:   e.Message,
		},
	})
}

type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}

// EventSink feeds the journal into a Publisher.
type EventSink struct {
	pub Publisher
}

func NewEventSink(pub Publisher) *EventSink {
	return &EventSink{pub: pub}
}

func (s *EventSink) Record(e eventlog.Entry) error {
	return s.pub.PublishEvent(e)
}

func (s *EventSink) Close() error {
	return s.pub.Close()
}
