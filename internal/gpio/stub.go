//go:build !linux

package gpio

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms. Run with -safe-mode instead.
type Chip struct{}

func OpenChip(string) (*Chip, error) {
	return nil, errUnsupported
}

func (c *Chip) RequestOutput(int) (Output, error) {
	return nil, errUnsupported
}

func (c *Chip) RequestInput(int) (Input, error) {
	return nil, errUnsupported
}

func (c *Chip) WatchButton(int, time.Duration, func()) error {
	return errUnsupported
}

func (c *Chip) Close() error {
	return nil
}
