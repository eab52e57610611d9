package firealarmcontroller

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/hvaccontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/motioncontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/display"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/gpio"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		expected model.AlarmState
	}{
		{"normal", 75, model.AlarmNormal},
		{"at threshold stays normal", 90, model.AlarmNormal},
		{"above threshold", 91, model.AlarmActive},
		{"well above", 95, model.AlarmActive},
		{"clears below", 70, model.AlarmNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.index, 90))
		})
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (n *recordingNotifier) Send(title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return n.err
}

type fixture struct {
	st       *state.SystemState
	sup      *Supervisor
	hvac     *hvaccontroller.Controller
	panel    *display.Panel
	events   *eventlog.Memory
	notifier *recordingNotifier
	heat     *gpio.FakeOutput
	cool     *gpio.FakeOutput
	light    *gpio.FakeOutput
	now      time.Time
}

func newFixture() *fixture {
	fx := &fixture{
		st:       state.NewDefault(),
		events:   &eventlog.Memory{},
		notifier: &recordingNotifier{},
		heat:     &gpio.FakeOutput{},
		cool:     &gpio.FakeOutput{},
		light:    &gpio.FakeOutput{},
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	bank := device.NewBank(fx.heat, fx.cool, fx.light)
	fx.panel = display.NewPanel(display.NewRecorder(), display.WithClock(func() time.Time { return fx.now }))
	fx.hvac = hvaccontroller.New(bank, fx.events, 3)
	motion := motioncontroller.New(fx.st, &gpio.FakeInput{}, bank, fx.events, 10*time.Second)
	fx.sup = New(fx.st, fx.hvac, motion, bank, fx.panel, fx.events, fx.notifier, 90, 3*time.Second)
	return fx
}

// cycle runs one control cycle the way the environment loop does.
func (fx *fixture) cycle(index int) Transition {
	var tr Transition
	fx.st.Update(func(f *state.Fields) {
		tr = fx.sup.Check(f, index)
		if !f.FireAlarmActive {
			fx.hvac.Apply(f, index)
		}
	})
	return tr
}

func TestEntry(t *testing.T) {
	fx := newFixture()

	require.Equal(t, Entered, fx.cycle(92))

	snap := fx.st.Snapshot()
	assert.True(t, snap.FireAlarmActive)
	assert.True(t, snap.DoorOpen)
	assert.Equal(t, model.ModeOff, snap.HVACMode)
	assert.Equal(t, []string{eventlog.FireAlarmOn, eventlog.HVACOff}, fx.events.Messages())

	l0, l1 := fx.panel.Lines()
	assert.Equal(t, "!! FIRE ALERT !!", l0)
	assert.Equal(t, "DOOR OPEN - EVAC", l1)
	assert.Equal(t, []string{eventlog.FireAlarmOn}, fx.notifier.titles)
}

func TestEntry_FromCooling(t *testing.T) {
	fx := newFixture()

	fx.cycle(80)
	require.True(t, fx.cool.Level())

	fx.cycle(95)
	assert.False(t, fx.cool.Level())
	assert.Equal(t, []string{"HVAC AC", eventlog.FireAlarmOn, eventlog.HVACOff}, fx.events.Messages())
}

func TestNoRepeatWhileActive(t *testing.T) {
	fx := newFixture()

	fx.cycle(92)
	assert.Equal(t, None, fx.cycle(95))
	assert.Equal(t, None, fx.cycle(91))
	assert.Equal(t, 1, fx.events.Count(eventlog.FireAlarmOn))
}

func TestExit(t *testing.T) {
	fx := newFixture()
	fx.cycle(92)
	fx.sup.Tick()
	require.True(t, fx.light.Level())

	require.Equal(t, Cleared, fx.cycle(88))

	snap := fx.st.Snapshot()
	assert.False(t, snap.FireAlarmActive)
	assert.False(t, snap.AmbientLightOn)
	assert.False(t, fx.light.Level())
	// door stays open so the HVAC stays off after the alarm
	assert.True(t, snap.DoorOpen)
	assert.Equal(t, model.ModeOff, snap.HVACMode)
	assert.False(t, fx.heat.Level())
	assert.False(t, fx.cool.Level())

	assert.Equal(t, []string{eventlog.FireAlarmOn, eventlog.HVACOff, eventlog.FireAlarmOff}, fx.events.Messages())

	l0, l1 := fx.panel.Lines()
	assert.Equal(t, "Fire Over", l0)
	assert.Equal(t, "Resuming...", l1)
	assert.True(t, fx.panel.Held())

	fx.now = fx.now.Add(3 * time.Second)
	assert.False(t, fx.panel.Held())
}

func TestTick_FlashesOnlyWhileActive(t *testing.T) {
	fx := newFixture()

	fx.sup.Tick()
	assert.Empty(t, fx.light.Writes())

	fx.cycle(99)
	fx.sup.Tick()
	assert.True(t, fx.light.Level())
	assert.True(t, fx.heat.Level())
	assert.True(t, fx.cool.Level())

	fx.sup.Tick()
	assert.False(t, fx.light.Level())
	assert.False(t, fx.heat.Level())
	assert.False(t, fx.cool.Level())
}

func TestNotifierFailureIsNotFatal(t *testing.T) {
	fx := newFixture()
	fx.notifier.err = errors.New("offline")

	assert.Equal(t, Entered, fx.cycle(92))
	assert.True(t, fx.st.Snapshot().FireAlarmActive)
}

func TestNilNotifier(t *testing.T) {
	fx := newFixture()
	fx.sup.notifier = nil

	assert.Equal(t, Entered, fx.cycle(92))
	assert.Equal(t, Cleared, fx.cycle(80))
}
