package motioncontroller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/gpio"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
)

const poll = 200 * time.Millisecond

type fixture struct {
	st     *state.SystemState
	mon    *Monitor
	pir    *gpio.FakeInput
	light  *gpio.FakeOutput
	events *eventlog.Memory
	clock  time.Time
}

func newFixture() *fixture {
	fx := &fixture{
		st:     state.NewDefault(),
		pir:    &gpio.FakeInput{},
		light:  &gpio.FakeOutput{},
		events: &eventlog.Memory{},
		clock:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	bank := device.NewBank(&gpio.FakeOutput{}, &gpio.FakeOutput{}, fx.light)
	fx.mon = New(fx.st, fx.pir, bank, fx.events, 10*time.Second)
	fx.mon.now = func() time.Time { return fx.clock }
	return fx
}

// run polls at the motion loop cadence for d with the PIR held at present.
func (fx *fixture) run(d time.Duration, present bool) {
	fx.pir.Set(present)
	for elapsed := time.Duration(0); elapsed < d; elapsed += poll {
		fx.clock = fx.clock.Add(poll)
		fx.mon.Tick()
	}
}

func TestLightStaysOnWithinTimeout(t *testing.T) {
	fx := newFixture()

	fx.run(5*time.Second, true)
	assert.True(t, fx.st.Snapshot().AmbientLightOn)

	fx.run(9*time.Second, false)
	assert.True(t, fx.st.Snapshot().AmbientLightOn)
	assert.True(t, fx.light.Level())
	assert.Equal(t, []string{eventlog.LightsOn}, fx.events.Messages())
}

func TestLightTurnsOffAfterTimeout(t *testing.T) {
	fx := newFixture()

	fx.run(5*time.Second, true)
	fx.run(11*time.Second, false)

	assert.False(t, fx.st.Snapshot().AmbientLightOn)
	assert.False(t, fx.light.Level())
	assert.Equal(t, 1, fx.events.Count(eventlog.LightsOff))
	assert.Equal(t, []string{eventlog.LightsOn, eventlog.LightsOff}, fx.events.Messages())
}

func TestRepeatedPollsAreIdempotent(t *testing.T) {
	fx := newFixture()

	fx.run(time.Minute, false)
	assert.Empty(t, fx.events.Messages())

	fx.run(time.Minute, true)
	assert.Equal(t, 1, fx.events.Count(eventlog.LightsOn))
	assert.Equal(t, []bool{true}, fx.light.Writes())
}

func TestPoll_DecayIsStrict(t *testing.T) {
	fx := newFixture()
	start := fx.clock
	f := &state.Fields{}

	assert.True(t, fx.mon.Poll(f, start, true))
	assert.False(t, fx.mon.Poll(f, start.Add(10*time.Second), false))
	assert.True(t, f.AmbientLightOn)
	assert.True(t, fx.mon.Poll(f, start.Add(10*time.Second+time.Millisecond), false))
	assert.False(t, f.AmbientLightOn)
}

func TestPoll_MotionRefreshesTimestamp(t *testing.T) {
	fx := newFixture()
	start := fx.clock
	f := &state.Fields{}

	fx.mon.Poll(f, start, true)
	fx.mon.Poll(f, start.Add(8*time.Second), true)
	assert.Equal(t, start.Add(8*time.Second), f.LastMotionAt)

	assert.False(t, fx.mon.Poll(f, start.Add(17*time.Second), false))
	assert.True(t, fx.mon.Poll(f, start.Add(19*time.Second), false))
}

func TestSkippedDuringFireAlarm(t *testing.T) {
	fx := newFixture()
	fx.st.Update(func(f *state.Fields) { f.FireAlarmActive = true })

	fx.run(2*time.Second, true)

	assert.Zero(t, fx.pir.Reads())
	assert.False(t, fx.st.Snapshot().AmbientLightOn)
	assert.True(t, fx.st.Snapshot().LastMotionAt.IsZero())
	assert.Empty(t, fx.events.Messages())
}

func TestForceOff(t *testing.T) {
	fx := newFixture()
	fx.run(time.Second, true)

	fx.st.Update(fx.mon.ForceOff)

	assert.False(t, fx.st.Snapshot().AmbientLightOn)
	assert.False(t, fx.light.Level())
	assert.Equal(t, []string{eventlog.LightsOn}, fx.events.Messages())
}

func TestRun_StopsOnCancel(t *testing.T) {
	fx := newFixture()
	fx.pir.Set(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fx.mon.Run(ctx, time.Millisecond) }()

	assert.Eventually(t, func() bool { return fx.st.Snapshot().AmbientLightOn }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
