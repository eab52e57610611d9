package doorcontroller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/hvaccontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/datadog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/display"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
)

// Controller handles the three front-panel buttons.
type Controller struct {
	state  *state.SystemState
	hvac   *hvaccontroller.Controller
	panel  *display.Panel
	events eventlog.Appender
	dwell  time.Duration
}

func New(st *state.SystemState, hvac *hvaccontroller.Controller, panel *display.Panel, events eventlog.Appender, dwell time.Duration) *Controller {
	return &Controller{state: st, hvac: hvac, panel: panel, events: events, dwell: dwell}
}

// Toggle flips the door. Opening forces the HVAC off. The new door and HVAC
// state stay on the display for the dwell, and Toggle blocks until the dwell
// has passed or ctx is done. Presses during a fire alarm are ignored since
// the alarm holds the door open.
func (c *Controller) Toggle(ctx context.Context) {
	var (
		gen     uint64
		ignored bool
		open    bool
	)

	c.state.Update(func(f *state.Fields) {
		if f.FireAlarmActive {
			ignored = true
			return
		}

		f.DoorOpen = !f.DoorOpen
		open = f.DoorOpen
		if open {
			c.hvac.ForceOff(f)
			c.events.Append(eventlog.DoorOpen)
			c.events.Append(eventlog.HVACOff)
		} else {
			c.events.Append(eventlog.DoorClosed)
		}

		l0, l1 := display.DoorLines(f.DoorOpen, f.HVACMode)
		gen = c.panel.Hold(l0, l1, c.dwell)
	})

	if ignored {
		log.Info().Msg("Door button ignored during fire alarm")
		return
	}

	log.Info().Bool("open", open).Msg("Door toggled")
	datadog.Bool("door.open", open)

	timer := time.NewTimer(c.dwell)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	c.panel.Release(gen)
}

func (c *Controller) IncreaseSetpoint(context.Context) {
	sp := c.state.IncreaseSetpoint()
	log.Info().Int("setpoint", sp).Msg("Setpoint increased")
	datadog.Gauge("environment.setpoint", float64(sp))
}

func (c *Controller) DecreaseSetpoint(context.Context) {
	sp := c.state.DecreaseSetpoint()
	log.Info().Int("setpoint", sp).Msg("Setpoint decreased")
	datadog.Gauge("environment.setpoint", float64(sp))
}
