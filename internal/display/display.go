// Package display owns the two-line character display. Every writer goes
// through a Panel so lines from different loops never interleave.
package display

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
)

const (
	Columns = 16
	Rows    = 2
)

// Display is a character display addressed by column and row.
type Display interface {
	Clear() error
	Write(col, row int, text string) error
}

// Panel serializes access to a Display. A hold keeps the current message on
// screen until it expires or is released; Show is ignored while a hold is in
// force. Alert always wins and cancels any hold.
type Panel struct {
	mu        sync.Mutex
	d         Display
	now       func() time.Time
	lines     [Rows]string
	blank     bool
	holdUntil time.Time
	holdGen   uint64
}

type Option func(*Panel)

func WithClock(now func() time.Time) Option {
	return func(p *Panel) { p.now = now }
}

func NewPanel(d Display, opts ...Option) *Panel {
	p := &Panel{d: d, now: time.Now, blank: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Show renders two lines unless a hold is in force. It reports whether the
// lines are now on screen.
func (p *Panel) Show(line0, line1 string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.heldLocked() {
		return false
	}
	p.renderLocked(line0, line1)
	return true
}

// Hold renders two lines and keeps them for d. The returned generation can
// be passed to Release to end the hold early.
func (p *Panel) Hold(line0, line1 string, d time.Duration) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.renderLocked(line0, line1)
	p.holdGen++
	p.holdUntil = p.now().Add(d)
	return p.holdGen
}

// Release ends the hold started with gen and clears the display. A stale
// generation (the hold was already replaced) is a no-op.
func (p *Panel) Release(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.holdGen {
		return
	}
	p.holdUntil = time.Time{}
	p.clearLocked()
}

// Alert renders two lines regardless of any hold.
func (p *Panel) Alert(line0, line1 string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.holdGen++
	p.holdUntil = time.Time{}
	p.renderLocked(line0, line1)
}

func (p *Panel) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.holdGen++
	p.holdUntil = time.Time{}
	p.clearLocked()
}

func (p *Panel) Held() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.heldLocked()
}

// Lines returns what the panel last put on screen.
func (p *Panel) Lines() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.TrimRight(p.lines[0], " "), strings.TrimRight(p.lines[1], " ")
}

func (p *Panel) heldLocked() bool {
	return !p.holdUntil.IsZero() && p.now().Before(p.holdUntil)
}

func (p *Panel) renderLocked(line0, line1 string) {
	next := [Rows]string{Fit(line0), Fit(line1)}
	if !p.blank && next == p.lines {
		return
	}

	for row, text := range next {
		if err := p.d.Write(0, row, text); err != nil {
			log.Warn().Err(err).Int("row", row).Msg("Failed to write display line")
		}
	}
	p.lines = next
	p.blank = false
}

func (p *Panel) clearLocked() {
	if err := p.d.Clear(); err != nil {
		log.Warn().Err(err).Msg("Failed to clear display")
	}
	p.lines = [Rows]string{}
	p.blank = true
}

// Fit truncates or pads text to exactly Columns characters so a shorter
// line overwrites whatever was there before.
func Fit(text string) string {
	r := []rune(text)
	if len(r) > Columns {
		r = r[:Columns]
	}
	return string(r) + strings.Repeat(" ", Columns-len(r))
}

// Status is what the slow loop shows when nothing else owns the display.
type Status struct {
	Index    int
	AvgF     int
	Mode     model.HVACMode
	Setpoint int
	LightOn  bool
	DoorOpen bool
}

func StatusLines(s Status) (string, string) {
	light := "OFF"
	if s.LightOn {
		light = "ON"
	}
	door := "CLS"
	if s.DoorOpen {
		door = "OPN"
	}
	return fmt.Sprintf("WI:%d T:%d %s", s.Index, s.AvgF, s.Mode),
		fmt.Sprintf("S:%d L:%s D:%s", s.Setpoint, light, door)
}

func AlertLines() (string, string) {
	return "!! FIRE ALERT !!", "DOOR OPEN - EVAC"
}

func FireOverLines() (string, string) {
	return "Fire Over", "Resuming..."
}

func DoorLines(open bool, mode model.HVACMode) (string, string) {
	door := "CLOSED"
	if open {
		door = "OPEN"
	}
	return "DOOR: " + door, "HVAC: " + string(mode)
}
