//go:build !linux

package lcd

import "errors"

// Bus is not available on non-Linux platforms.
type Bus struct{}

func OpenBus(int) (*Bus, error) {
	return nil, errors.New("lcd: /dev/i2c is only available on Linux")
}

func (b *Bus) Tx(uint16, []byte, []byte) error {
	return errors.New("lcd: not supported")
}

func (b *Bus) Close() error {
	return nil
}
