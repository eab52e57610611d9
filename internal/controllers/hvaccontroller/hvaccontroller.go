package hvaccontroller

import (
	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/datadog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
)

// Evaluate picks the HVAC mode for one cycle. An open door always wins;
// otherwise the index must leave the band setpoint±band before heating or
// cooling starts.
func Evaluate(index, setpoint, band int, doorOpen bool) model.HVACMode {
	switch {
	case doorOpen:
		return model.ModeOff
	case index < setpoint-band:
		return model.ModeHeat
	case index > setpoint+band:
		return model.ModeCool
	default:
		return model.ModeOff
	}
}

type Controller struct {
	bank   *device.Bank
	events eventlog.Appender
	band   int
}

func New(bank *device.Bank, events eventlog.Appender, band int) *Controller {
	return &Controller{bank: bank, events: events, band: band}
}

// Apply re-evaluates the mode for index and drives the outputs. It must run
// inside state.Update. While the fire alarm is active the mode stays frozen.
func (c *Controller) Apply(f *state.Fields, index int) model.HVACMode {
	if f.FireAlarmActive {
		return f.HVACMode
	}

	prev := f.HVACMode
	mode := Evaluate(index, f.Setpoint, c.band, f.DoorOpen)
	f.HVACMode = mode
	c.bank.SetHVAC(mode)

	if mode != prev {
		log.Info().
			Str("from", string(prev)).
			Str("to", string(mode)).
			Int("index", index).
			Int("setpoint", f.Setpoint).
			Bool("door_open", f.DoorOpen).
			Msg("HVAC mode changed")
		c.events.Append(eventlog.HVAC(mode))
	}

	datadog.Gauge("hvac.mode", mode.Gauge())
	return mode
}

// ForceOff sets the mode to OFF and deasserts heat and cool without logging
// an event; callers that force the HVAC off log their own sequence. It must
// run inside state.Update.
func (c *Controller) ForceOff(f *state.Fields) {
	if f.HVACMode != model.ModeOff {
		log.Info().Str("from", string(f.HVACMode)).Msg("HVAC forced off")
	}
	f.HVACMode = model.ModeOff
	c.bank.HVACOff()
}
