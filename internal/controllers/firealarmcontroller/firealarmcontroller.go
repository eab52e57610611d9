package firealarmcontroller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/hvaccontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/motioncontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/datadog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/display"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/notifications"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
)

// Evaluate maps the comfort index to an alarm state. The alarm is active
// strictly above threshold and clears at or below it, with no hysteresis.
func Evaluate(index, threshold int) model.AlarmState {
	if index > threshold {
		return model.AlarmActive
	}
	return model.AlarmNormal
}

type Transition int

const (
	None Transition = iota
	Entered
	Cleared
)

func (t Transition) String() string {
	switch t {
	case Entered:
		return "entered"
	case Cleared:
		return "cleared"
	default:
		return "none"
	}
}

type Supervisor struct {
	state     *state.SystemState
	hvac      *hvaccontroller.Controller
	motion    *motioncontroller.Monitor
	bank      *device.Bank
	panel     *display.Panel
	events    eventlog.Appender
	notifier  notifications.Notifier
	threshold int
	clearHold time.Duration
}

// New wires the supervisor. notifier may be nil.
func New(
	st *state.SystemState,
	hvac *hvaccontroller.Controller,
	motion *motioncontroller.Monitor,
	bank *device.Bank,
	panel *display.Panel,
	events eventlog.Appender,
	notifier notifications.Notifier,
	threshold int,
	clearHold time.Duration,
) *Supervisor {
	return &Supervisor{
		state:     st,
		hvac:      hvac,
		motion:    motion,
		bank:      bank,
		panel:     panel,
		events:    events,
		notifier:  notifier,
		threshold: threshold,
		clearHold: clearHold,
	}
}

// Check evaluates the alarm for a fresh comfort index and performs the entry
// or exit actions on a transition. It must run inside state.Update.
func (s *Supervisor) Check(f *state.Fields, index int) Transition {
	next := Evaluate(index, s.threshold)

	switch {
	case next == model.AlarmActive && !f.FireAlarmActive:
		s.enter(f, index)
		return Entered
	case next == model.AlarmNormal && f.FireAlarmActive:
		s.clear(f, index)
		return Cleared
	}
	return None
}

func (s *Supervisor) enter(f *state.Fields, index int) {
	log.Warn().
		Int("index", index).
		Int("threshold", s.threshold).
		Msg("Fire alarm triggered")

	f.FireAlarmActive = true
	f.DoorOpen = true
	s.hvac.ForceOff(f)

	s.events.Append(eventlog.FireAlarmOn)
	s.events.Append(eventlog.HVACOff)
	s.panel.Alert(display.AlertLines())
	datadog.Bool("fire_alarm.active", true)

	if s.notifier != nil {
		msg := fmt.Sprintf("Comfort index %d exceeded %d. Door opened, HVAC off.", index, s.threshold)
		if err := s.notifier.Send(eventlog.FireAlarmOn, msg); err != nil {
			log.Error().Err(err).Msg("Failed to send fire alarm notification")
		}
	}
}

func (s *Supervisor) clear(f *state.Fields, index int) {
	log.Info().
		Int("index", index).
		Msg("Fire alarm cleared")

	f.FireAlarmActive = false
	s.motion.ForceOff(f)

	s.events.Append(eventlog.FireAlarmOff)
	l0, l1 := display.FireOverLines()
	s.panel.Hold(l0, l1, s.clearHold)
	datadog.Bool("fire_alarm.active", false)

	if s.notifier != nil {
		if err := s.notifier.Send(eventlog.FireAlarmOff, fmt.Sprintf("Comfort index back to %d.", index)); err != nil {
			log.Error().Err(err).Msg("Failed to send fire alarm notification")
		}
	}
}

// Tick flashes the outputs and repaints the alert while the alarm is active.
// It holds the state lock so a concurrent exit can never be overwritten by a
// late flash.
func (s *Supervisor) Tick() {
	s.state.Update(func(f *state.Fields) {
		if !f.FireAlarmActive {
			return
		}
		s.bank.ToggleIndicators()
		s.panel.Alert(display.AlertLines())
	})
}

func (s *Supervisor) RunAlertLoop(ctx context.Context, interval time.Duration) error {
	log.Info().Dur("interval", interval).Msg("Starting fire alert loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Fire alert loop stopped")
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}
