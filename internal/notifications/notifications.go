package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/env"
)

// Notifier pushes a short alert to the building operator.
type Notifier interface {
	Send(title, message string) error
}

// Ntfy publishes to an ntfy topic.
type Ntfy struct {
	client  *http.Client
	baseURL string
	topic   string
}

func NewNtfy(baseURL, topic string) *Ntfy {
	return &Ntfy{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		topic:   topic,
	}
}

// Init builds the notifier from env.Cfg, or returns nil when no topic is
// configured.
func Init() Notifier {
	if env.Cfg == nil || env.Cfg.NtfyTopic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return nil
	}

	n := NewNtfy(env.Cfg.NtfyURL, env.Cfg.NtfyTopic)
	log.Info().
		Str("topic", n.topic).
		Msg("Ntfy notifications initialized")
	return n
}

// Send posts a JSON message to the ntfy server root, which routes it by the
// topic field.
func (n *Ntfy) Send(title, message string) error {
	payload := map[string]interface{}{
		"topic":   n.topic,
		"title":   title,
		"message": message,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, n.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", title).
		Int("status", resp.StatusCode).
		Msg("Notification sent successfully")

	return nil
}

// Async wraps a Notifier so Send never blocks the caller. Failures are
// logged and dropped.
type Async struct {
	next Notifier
	ch   chan [2]string
	done chan struct{}
}

func NewAsync(next Notifier, buffer int) *Async {
	a := &Async{next: next, ch: make(chan [2]string, buffer), done: make(chan struct{})}
	go a.run()
	return a
}

func (a *Async) Send(title, message string) error {
	select {
	case a.ch <- [2]string{title, message}:
	default:
		log.Warn().Str("title", title).Msg("Notification queue full, dropping")
	}
	return nil
}

// Close waits for queued notifications to be sent.
func (a *Async) Close() {
	close(a.ch)
	<-a.done
}

func (a *Async) run() {
	defer close(a.done)
	for m := range a.ch {
		if err := a.next.Send(m[0], m[1]); err != nil {
			log.Warn().Err(err).Str("title", m[0]).Msg("Failed to send notification")
		}
	}
}
