package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
)

func TestNewDefault(t *testing.T) {
	s := NewDefault()
	f := s.Snapshot()

	assert.Equal(t, 72, f.Setpoint)
	assert.Equal(t, model.ModeOff, f.HVACMode)
	assert.False(t, f.DoorOpen)
	assert.False(t, f.AmbientLightOn)
	assert.False(t, f.FireAlarmActive)
	assert.True(t, f.LastMotionAt.IsZero())
}

func TestNew_ClampsInitialSetpoint(t *testing.T) {
	assert.Equal(t, 65, New(65, 99, 10).Snapshot().Setpoint)
	assert.Equal(t, 99, New(65, 99, 150).Snapshot().Setpoint)
}

func TestSetpointSaturates(t *testing.T) {
	s := New(65, 99, 99)
	assert.Equal(t, 99, s.IncreaseSetpoint())
	assert.Equal(t, 99, s.Snapshot().Setpoint)
	assert.Equal(t, 98, s.DecreaseSetpoint())

	s = New(65, 99, 65)
	assert.Equal(t, 65, s.DecreaseSetpoint())
	assert.Equal(t, 65, s.Snapshot().Setpoint)
	assert.Equal(t, 66, s.IncreaseSetpoint())
}

func TestUpdate_KeepsSetpointInRange(t *testing.T) {
	s := NewDefault()
	s.Update(func(f *Fields) { f.Setpoint = 500 })
	assert.Equal(t, 99, s.Snapshot().Setpoint)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewDefault()
	f := s.Snapshot()
	f.DoorOpen = true
	assert.False(t, s.Snapshot().DoorOpen)
}

func TestConcurrentSetpointAdjustments(t *testing.T) {
	s := New(65, 99, 80)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.IncreaseSetpoint()
		}()
		go func() {
			defer wg.Done()
			s.DecreaseSetpoint()
		}()
	}
	wg.Wait()

	assert.Equal(t, 80, s.Snapshot().Setpoint)
}
