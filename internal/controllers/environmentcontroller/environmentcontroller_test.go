package environmentcontroller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/doorcontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/firealarmcontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/hvaccontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/controllers/motioncontroller"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/device"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/display"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/eventlog"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/gpio"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/humidity"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/state"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/temperature"
)

type fixture struct {
	st     *state.SystemState
	ctrl   *Controller
	door   *doorcontroller.Controller
	alarm  *firealarmcontroller.Supervisor
	sensor *temperature.FakeReader
	hum    *humidity.Cache
	panel  *display.Panel
	events *eventlog.Memory
	heat   *gpio.FakeOutput
	cool   *gpio.FakeOutput
}

func newFixture(sensor *temperature.FakeReader, hum int) *fixture {
	fx := &fixture{
		st:     state.NewDefault(),
		sensor: sensor,
		hum:    humidity.NewCache(humidity.Static(hum), hum),
		events: &eventlog.Memory{},
		heat:   &gpio.FakeOutput{},
		cool:   &gpio.FakeOutput{},
	}
	bank := device.NewBank(fx.heat, fx.cool, &gpio.FakeOutput{})
	fx.panel = display.NewPanel(display.NewRecorder())
	hvac := hvaccontroller.New(bank, fx.events, 3)
	motion := motioncontroller.New(fx.st, &gpio.FakeInput{}, bank, fx.events, 10*time.Second)
	fx.alarm = firealarmcontroller.New(fx.st, hvac, motion, bank, fx.panel, fx.events, nil, 90, time.Millisecond)
	fx.door = doorcontroller.New(fx.st, hvac, fx.panel, fx.events, time.Millisecond)
	fx.ctrl = New(fx.st, sensor, fx.hum, fx.alarm, hvac, fx.panel)
	return fx
}

func TestCycle_WaitsForFullWindow(t *testing.T) {
	fx := newFixture(temperature.NewFakeReader(20), 60)

	_, ok := fx.ctrl.Cycle()
	assert.False(t, ok)
	_, ok = fx.ctrl.Cycle()
	assert.False(t, ok)

	r, ok := fx.ctrl.Cycle()
	require.True(t, ok)
	// 20C = 68F, 68 + 0.05*60 = 71
	assert.Equal(t, Reading{AvgF: 68, Humidity: 60, Index: 71}, r)

	l0, l1 := fx.panel.Lines()
	assert.Equal(t, "WI:71 T:68 OFF", l0)
	assert.Equal(t, "S:72 L:OFF D:CLS", l1)
}

func TestCycle_DropsFailedReads(t *testing.T) {
	sensor := &temperature.FakeReader{
		Celsius: []float64{20, 0, 20, 20},
		Errors:  []error{nil, temperature.ErrSensor, nil, nil},
	}
	fx := newFixture(sensor, 55)

	results := []bool{}
	for i := 0; i < 4; i++ {
		_, ok := fx.ctrl.Cycle()
		results = append(results, ok)
	}
	assert.Equal(t, []bool{false, false, false, true}, results)
}

func TestCycle_DrivesHVAC(t *testing.T) {
	// 27C = 80.6F, with 60% humidity the index is 84
	fx := newFixture(temperature.NewFakeReader(27), 60)

	for i := 0; i < 3; i++ {
		fx.ctrl.Cycle()
	}
	assert.Equal(t, model.ModeCool, fx.st.Snapshot().HVACMode)
	assert.True(t, fx.cool.Level())
	assert.Equal(t, []string{"HVAC AC"}, fx.events.Messages())

	fx.ctrl.Cycle()
	assert.Equal(t, 1, fx.events.Count("HVAC AC"))
}

func TestCycle_FireAlarmLifecycle(t *testing.T) {
	// 35C = 95F -> index 98, then 21C = 69.8F pulls the average back down
	sensor := temperature.NewFakeReader(35, 35, 35, 35, 21, 21, 21)
	fx := newFixture(sensor, 55)

	for i := 0; i < 4; i++ {
		fx.ctrl.Cycle()
	}
	snap := fx.st.Snapshot()
	require.True(t, snap.FireAlarmActive)
	assert.True(t, snap.DoorOpen)
	assert.Equal(t, model.ModeOff, snap.HVACMode)
	l0, _ := fx.panel.Lines()
	assert.Equal(t, "!! FIRE ALERT !!", l0)

	for i := 0; i < 3; i++ {
		fx.ctrl.Cycle()
	}
	assert.False(t, fx.st.Snapshot().FireAlarmActive)
	assert.Equal(t, []string{
		eventlog.FireAlarmOn,
		eventlog.HVACOff,
		eventlog.FireAlarmOff,
	}, fx.events.Messages())
}

func TestCycle_SetpointChangeTakesEffectNextCycle(t *testing.T) {
	// 22C = 71.6F -> index 75 at 55%
	fx := newFixture(temperature.NewFakeReader(22), 55)
	for i := 0; i < 3; i++ {
		fx.ctrl.Cycle()
	}
	require.Equal(t, model.ModeOff, fx.st.Snapshot().HVACMode)

	for i := 0; i < 4; i++ {
		fx.door.DecreaseSetpoint(context.Background())
	}
	fx.ctrl.Cycle()
	assert.Equal(t, model.ModeCool, fx.st.Snapshot().HVACMode)
}

// An interleaving of control cycles and door presses must never leave the
// alarm active with the HVAC running.
func TestConcurrentDoorAndControl(t *testing.T) {
	sensor := temperature.NewFakeReader(10, 10, 10, 35, 35, 35, 35, 10, 10, 10, 35, 35, 35, 10, 10, 10)
	fx := newFixture(sensor, 55)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	violations := 0
	var vmu sync.Mutex

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			fx.ctrl.Cycle()
		}
		close(stop)
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				fx.door.Toggle(context.Background())
			}
		}
	}()

	check := func() {
		snap := fx.st.Snapshot()
		if snap.FireAlarmActive && snap.HVACMode != model.ModeOff {
			vmu.Lock()
			violations++
			vmu.Unlock()
		}
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		select {
		case <-done:
			check()
			assert.Zero(t, violations)
			return
		default:
			check()
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	fx := newFixture(temperature.NewFakeReader(20), 55)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fx.ctrl.Run(ctx, time.Millisecond) }()

	assert.Eventually(t, func() bool {
		l0, _ := fx.panel.Lines()
		return l0 != ""
	}, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
