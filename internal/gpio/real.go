//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"
)

const consumer = "bms-controller"

// Chip owns every line requested for the controller on one gpiochip.
type Chip struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
	outs  []*gpiocdev.Line
}

func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &Chip{chip: chip}, nil
}

// RequestOutput claims pin as an active-high output, initially low.
func (c *Chip) RequestOutput(pin int) (Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	c.lines = append(c.lines, line)
	c.outs = append(c.outs, line)
	return &lineOutput{line: line}, nil
}

// RequestInput claims pin as a pulled-down input read as active-high,
// matching a PIR module's push-pull output.
func (c *Chip) RequestInput(pin int) (Input, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := c.chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", pin, err)
	}
	c.lines = append(c.lines, line)
	return &lineInput{line: line}, nil
}

// WatchButton claims pin as a button wired to ground. onPress runs on the
// gpiocdev event goroutine for every debounced press, so it must not block.
func (c *Chip) WatchButton(pin int, debounce time.Duration, onPress func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type != gpiocdev.LineEventFallingEdge {
			return
		}
		log.Debug().Int("pin", evt.Offset).Uint32("seqno", evt.Seqno).Msg("Button pressed")
		onPress()
	}

	line, err := c.chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(debounce),
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		return fmt.Errorf("request button pin %d: %w", pin, err)
	}
	c.lines = append(c.lines, line)
	return nil
}

// Close drives every output low and releases all lines and the chip.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, line := range c.outs {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive line %d low: %w", line.Offset(), err))
		}
	}
	for _, line := range c.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", line.Offset(), err))
		}
	}
	c.lines = nil
	c.outs = nil

	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

type lineOutput struct {
	line *gpiocdev.Line
}

func (o *lineOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return o.line.SetValue(v)
}

type lineInput struct {
	line *gpiocdev.Line
}

func (i *lineInput) Active() (bool, error) {
	v, err := i.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", i.line.Offset(), err)
	}
	return v == 1, nil
}
