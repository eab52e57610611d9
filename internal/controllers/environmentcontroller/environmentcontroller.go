package environmentcontroller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/comfort"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/firealarmcontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/hvaccontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/datadog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/display"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/temperature"
)

// Humidity is the latest outdoor humidity in percent.
type Humidity interface {
	Value() int
}

type Reading struct {
	AvgF     int
	Humidity int
	Index    int
}

type Controller struct {
	state    *state.SystemState
	sensor   temperature.Reader
	filter   *temperature.Filter
	humidity Humidity
	alarm    *firealarmcontroller.Supervisor
	hvac     *hvaccontroller.Controller
	panel    *display.Panel
}

func New(
	st *state.SystemState,
	sensor temperature.Reader,
	humidity Humidity,
	alarm *firealarmcontroller.Supervisor,
	hvac *hvaccontroller.Controller,
	panel *display.Panel,
) *Controller {
	return &Controller{
		state:    st,
		sensor:   sensor,
		filter:   temperature.NewFilter(),
		humidity: humidity,
		alarm:    alarm,
		hvac:     hvac,
		panel:    panel,
	}
}

// Cycle samples the sensor once. Nothing downstream runs until the filter
// window is full; a failed read drops the sample and leaves the window as
// it was.
func (c *Controller) Cycle() (Reading, bool) {
	celsius, err := c.sensor.ReadCelsius()
	if err != nil {
		log.Debug().Err(err).Msg("Temperature read failed, skipping sample")
		return Reading{}, false
	}

	avgF, ok := c.filter.Push(celsius)
	if !ok {
		log.Debug().
			Int("samples", c.filter.Len()).
			Msg("Filling temperature window")
		return Reading{}, false
	}

	r := Reading{AvgF: avgF, Humidity: c.humidity.Value()}
	r.Index = comfort.Index(r.AvgF, r.Humidity)

	var snap state.Fields
	c.state.Update(func(f *state.Fields) {
		c.alarm.Check(f, r.Index)
		if !f.FireAlarmActive {
			c.hvac.Apply(f, r.Index)
			c.panel.Show(display.StatusLines(display.Status{
				Index:    r.Index,
				AvgF:     r.AvgF,
				Mode:     f.HVACMode,
				Setpoint: f.Setpoint,
				LightOn:  f.AmbientLightOn,
				DoorOpen: f.DoorOpen,
			}))
		}
		snap = *f
	})

	log.Debug().
		Float64("celsius", celsius).
		Int("avg_f", r.AvgF).
		Int("humidity", r.Humidity).
		Int("index", r.Index).
		Str("mode", string(snap.HVACMode)).
		Int("setpoint", snap.Setpoint).
		Bool("fire_alarm", snap.FireAlarmActive).
		Msg("Control cycle")

	datadog.Gauge("environment.temperature_f", float64(r.AvgF))
	datadog.Gauge("environment.humidity", float64(r.Humidity))
	datadog.Gauge("environment.comfort_index", float64(r.Index))
	datadog.Gauge("environment.setpoint", float64(snap.Setpoint))
	datadog.Bool("fire_alarm.active", snap.FireAlarmActive)

	return r, true
}

func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	log.Info().Dur("interval", interval).Msg("Starting control loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Control loop stopped")
			return nil
		case <-ticker.C:
			c.Cycle()
		}
	}
}
