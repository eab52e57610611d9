package device

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/gpio"
	"github.com/bilalkmalik03/smart-bms-rasbperrypi/internal/model"
)

// Levels is the last level written to each output.
type Levels struct {
	Heat  bool
	Cool  bool
	Light bool
}

// Bank serializes every write to the heat, cool and light outputs. Writes
// are skipped when the output already holds the requested level, except in
// AllOff which always drives every line.
type Bank struct {
	mu     sync.Mutex
	heat   gpio.Output
	cool   gpio.Output
	light  gpio.Output
	levels Levels
	phase  bool
}

func NewBank(heat, cool, light gpio.Output) *Bank {
	return &Bank{heat: heat, cool: cool, light: light}
}

// SetHVAC drives heat and cool for mode: HEAT asserts heat only, AC asserts
// cool only, OFF deasserts both.
func (b *Bank) SetHVAC(mode model.HVACMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.set("heat", b.heat, &b.levels.Heat, mode == model.ModeHeat)
	b.set("cool", b.cool, &b.levels.Cool, mode == model.ModeCool)
}

func (b *Bank) HVACOff() {
	b.SetHVAC(model.ModeOff)
}

func (b *Bank) SetLight(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.set("light", b.light, &b.levels.Light, on)
}

// ToggleIndicators flips all three outputs together so they flash in phase.
func (b *Bank) ToggleIndicators() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.phase = !b.phase
	b.set("light", b.light, &b.levels.Light, b.phase)
	b.set("heat", b.heat, &b.levels.Heat, b.phase)
	b.set("cool", b.cool, &b.levels.Cool, b.phase)
}

// AllOff deasserts every output unconditionally.
func (b *Bank) AllOff() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.phase = false
	for _, o := range []struct {
		name string
		out  gpio.Output
		lvl  *bool
	}{
		{"heat", b.heat, &b.levels.Heat},
		{"cool", b.cool, &b.levels.Cool},
		{"light", b.light, &b.levels.Light},
	} {
		if err := o.out.Set(false); err != nil {
			log.Warn().Err(err).Str("output", o.name).Msg("Failed to deassert output")
			continue
		}
		*o.lvl = false
	}
}

func (b *Bank) Levels() Levels {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels
}

func (b *Bank) set(name string, out gpio.Output, level *bool, on bool) {
	if *level == on {
		return
	}
	if err := out.Set(on); err != nil {
		log.Warn().Err(err).Str("output", name).Bool("on", on).Msg("Failed to drive output")
		return
	}
	*level = on
	log.Debug().Str("output", name).Bool("on", on).Msg("Output changed")
}
