package motioncontroller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/gpio"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
)

// Monitor turns the ambient light on when the PIR sees someone and off once
// nobody has been seen for longer than timeout.
type Monitor struct {
	state   *state.SystemState
	sensor  gpio.Input
	bank    *device.Bank
	events  eventlog.Appender
	timeout time.Duration
	now     func() time.Time
}

func New(st *state.SystemState, sensor gpio.Input, bank *device.Bank, events eventlog.Appender, timeout time.Duration) *Monitor {
	return &Monitor{
		state:   st,
		sensor:  sensor,
		bank:    bank,
		events:  events,
		timeout: timeout,
		now:     time.Now,
	}
}

// Poll advances the light state machine for one observation. It must run
// inside state.Update and reports whether the light changed.
func (m *Monitor) Poll(f *state.Fields, now time.Time, present bool) bool {
	switch {
	case present && !f.AmbientLightOn:
		f.AmbientLightOn = true
		f.LastMotionAt = now
		m.bank.SetLight(true)
		m.events.Append(eventlog.LightsOn)
		return true

	case present:
		f.LastMotionAt = now
		return false

	case f.AmbientLightOn && now.Sub(f.LastMotionAt) > m.timeout:
		f.AmbientLightOn = false
		m.bank.SetLight(false)
		m.events.Append(eventlog.LightsOff)
		return true
	}
	return false
}

// Tick reads the sensor and polls once, unless the fire alarm owns the
// outputs, in which case the sensor is not even read.
func (m *Monitor) Tick() {
	m.state.Update(func(f *state.Fields) {
		if f.FireAlarmActive {
			return
		}

		present, err := m.sensor.Active()
		if err != nil {
			log.Debug().Err(err).Msg("Motion sensor read failed")
			return
		}
		m.Poll(f, m.now(), present)
	})
}

// ForceOff turns the light off without an event. It must run inside
// state.Update.
func (m *Monitor) ForceOff(f *state.Fields) {
	f.AmbientLightOn = false
	m.bank.SetLight(false)
}

func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	log.Info().Dur("interval", interval).Msg("Starting motion monitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Motion monitor stopped")
			return nil
		case <-ticker.C:
			m.Tick()
		}
	}
}
