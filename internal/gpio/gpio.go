// Package gpio drives the board's LEDs and reads its PIR sensor and push
// buttons. The real implementation uses the Linux GPIO character device;
// the fakes stand in for hardware in tests.
package gpio

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Output is a single digital output such as an LED or relay.
type Output interface {
	Set(on bool) error
}

// Input is a single digital input polled for its logical level.
type Input interface {
	Active() (bool, error)
}

const DefaultDebounce = 50 * time.Millisecond

// Default BCM pin numbers for the reference board.
const (
	PinHeat     = 6
	PinCool     = 5
	PinLight    = 12
	PinMotion   = 17
	PinIncrease = 25
	PinDecrease = 18
	PinDoor     = 27
)

// LogOutput records what would have been driven without touching hardware.
// It backs every output in safe mode.
type LogOutput struct {
	mu    sync.Mutex
	name  string
	level bool
}

func NewLogOutput(name string) *LogOutput {
	return &LogOutput{name: name}
}

func (o *LogOutput) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.level != on {
		log.Debug().Str("output", o.name).Bool("on", on).Msg("Safe mode: output not driven")
	}
	o.level = on
	return nil
}

// NeverActive is the motion input used in safe mode.
type NeverActive struct{}

func (NeverActive) Active() (bool, error) {
	return false, nil
}
