package model

type HVACMode string

const (
	ModeOff  HVACMode = "OFF"
	ModeHeat HVACMode = "HEAT"
	ModeCool HVACMode = "AC"
)

func (m HVACMode) Valid() bool {
	switch m {
	case ModeOff, ModeHeat, ModeCool:
		return true
	default:
		return false
	}
}

// Gauge value used for metrics: -1 cooling, 0 off, 1 heating.
func (m HVACMode) Gauge() float64 {
	switch m {
	case ModeHeat:
		return 1
	case ModeCool:
		return -1
	default:
		return 0
	}
}

type AlarmState string

const (
	AlarmNormal AlarmState = "NORMAL"
	AlarmActive AlarmState = "ALARM"
)

type Button string

const (
	ButtonIncrease Button = "increase"
	ButtonDecrease Button = "decrease"
	ButtonDoor     Button = "door"
)

const (
	MinSetpoint     = 65
	MaxSetpoint     = 99
	DefaultSetpoint = 72
)
