package hvaccontroller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/gpio"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		doorOpen bool
		expected model.HVACMode
	}{
		{"cold heats", 68, false, model.ModeHeat},
		{"hot cools", 76, false, model.ModeCool},
		{"at setpoint", 72, false, model.ModeOff},
		{"lower band edge", 69, false, model.ModeOff},
		{"upper band edge", 75, false, model.ModeOff},
		{"just below band", 68, false, model.ModeHeat},
		{"just above band", 76, false, model.ModeCool},
		{"door open overrides heat", 68, true, model.ModeOff},
		{"door open overrides cool", 80, true, model.ModeOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.index, 72, 3, tt.doorOpen))
		})
	}
}

type fixture struct {
	ctrl   *Controller
	events *eventlog.Memory
	heat   *gpio.FakeOutput
	cool   *gpio.FakeOutput
}

func newFixture() fixture {
	heat, cool := &gpio.FakeOutput{}, &gpio.FakeOutput{}
	events := &eventlog.Memory{}
	bank := device.NewBank(heat, cool, &gpio.FakeOutput{})
	return fixture{ctrl: New(bank, events, 3), events: events, heat: heat, cool: cool}
}

func TestApply_LogsOnlyOnChange(t *testing.T) {
	fx := newFixture()
	f := &state.Fields{Setpoint: 72, HVACMode: model.ModeOff}

	fx.ctrl.Apply(f, 68)
	fx.ctrl.Apply(f, 68)
	fx.ctrl.Apply(f, 67)
	assert.Equal(t, model.ModeHeat, f.HVACMode)
	assert.True(t, fx.heat.Level())
	assert.False(t, fx.cool.Level())

	fx.ctrl.Apply(f, 80)
	assert.Equal(t, model.ModeCool, f.HVACMode)
	assert.False(t, fx.heat.Level())
	assert.True(t, fx.cool.Level())

	fx.ctrl.Apply(f, 72)
	fx.ctrl.Apply(f, 72)

	assert.Equal(t, []string{"HVAC HEAT", "HVAC AC", "HVAC OFF"}, fx.events.Messages())
}

func TestApply_InitialOffNotLogged(t *testing.T) {
	fx := newFixture()
	f := &state.Fields{Setpoint: 72, HVACMode: model.ModeOff}

	fx.ctrl.Apply(f, 72)
	assert.Empty(t, fx.events.Messages())
}

func TestApply_DoorOpenTurnsOff(t *testing.T) {
	fx := newFixture()
	f := &state.Fields{Setpoint: 72, HVACMode: model.ModeOff}

	fx.ctrl.Apply(f, 60)
	f.DoorOpen = true
	fx.ctrl.Apply(f, 60)

	assert.Equal(t, model.ModeOff, f.HVACMode)
	assert.False(t, fx.heat.Level())
	assert.Equal(t, []string{"HVAC HEAT", "HVAC OFF"}, fx.events.Messages())
}

func TestApply_FrozenDuringAlarm(t *testing.T) {
	fx := newFixture()
	f := &state.Fields{Setpoint: 72, HVACMode: model.ModeOff, FireAlarmActive: true}

	assert.Equal(t, model.ModeOff, fx.ctrl.Apply(f, 50))
	assert.Equal(t, model.ModeOff, f.HVACMode)
	assert.Empty(t, fx.heat.Writes())
	assert.Empty(t, fx.events.Messages())
}

func TestApply_UsesCurrentSetpoint(t *testing.T) {
	fx := newFixture()
	f := &state.Fields{Setpoint: 80, HVACMode: model.ModeOff}

	assert.Equal(t, model.ModeHeat, fx.ctrl.Apply(f, 76))
	f.Setpoint = 76
	assert.Equal(t, model.ModeOff, fx.ctrl.Apply(f, 76))
}

func TestForceOff(t *testing.T) {
	fx := newFixture()
	f := &state.Fields{Setpoint: 72, HVACMode: model.ModeOff}

	fx.ctrl.Apply(f, 80)
	fx.ctrl.ForceOff(f)

	assert.Equal(t, model.ModeOff, f.HVACMode)
	assert.False(t, fx.cool.Level())
	assert.Equal(t, []string{"HVAC AC"}, fx.events.Messages())

	// the next cycle with the door open has nothing new to report
	f.DoorOpen = true
	fx.ctrl.Apply(f, 80)
	assert.Equal(t, []string{"HVAC AC"}, fx.events.Messages())
}
