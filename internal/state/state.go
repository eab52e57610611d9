package state

import (
	"sync"
	"time"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
)

// Fields is the mutable system state shared by every control loop and
// button handler. It is only ever touched through SystemState.
type Fields struct {
	Setpoint        int
	HVACMode        model.HVACMode
	DoorOpen        bool
	AmbientLightOn  bool
	FireAlarmActive bool
	LastMotionAt    time.Time
}

type SystemState struct {
	mutex sync.Mutex
	f     Fields

	minSetpoint int
	maxSetpoint int
}

// New returns the process-wide state with the startup defaults. The initial
// setpoint is clamped into [minSetpoint, maxSetpoint].
func New(minSetpoint, maxSetpoint, initial int) *SystemState {
	s := &SystemState{
		minSetpoint: minSetpoint,
		maxSetpoint: maxSetpoint,
	}
	s.f = Fields{
		Setpoint: s.clamp(initial),
		HVACMode: model.ModeOff,
	}
	return s
}

func NewDefault() *SystemState {
	return New(model.MinSetpoint, model.MaxSetpoint, model.DefaultSetpoint)
}

// Update runs fn with exclusive access to the fields. Everything fn does,
// including actuator writes, is serialized against every other Update.
func (s *SystemState) Update(fn func(f *Fields)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	fn(&s.f)
	s.f.Setpoint = s.clamp(s.f.Setpoint)
}

func (s *SystemState) Snapshot() Fields {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.f
}

// IncreaseSetpoint raises the setpoint by one, saturating at the maximum.
func (s *SystemState) IncreaseSetpoint() int {
	return s.adjustSetpoint(1)
}

// DecreaseSetpoint lowers the setpoint by one, saturating at the minimum.
func (s *SystemState) DecreaseSetpoint() int {
	return s.adjustSetpoint(-1)
}

func (s *SystemState) SetpointRange() (int, int) {
	return s.minSetpoint, s.maxSetpoint
}

func (s *SystemState) adjustSetpoint(delta int) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.f.Setpoint = s.clamp(s.f.Setpoint + delta)
	return s.f.Setpoint
}

func (s *SystemState) clamp(v int) int {
	if v < s.minSetpoint {
		return s.minSetpoint
	}
	if v > s.maxSetpoint {
		return s.maxSetpoint
	}
	return v
}
