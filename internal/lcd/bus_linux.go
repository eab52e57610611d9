//go:build linux

package lcd

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// i2cSlave is I2C_SLAVE from <linux/i2c-dev.h>.
const i2cSlave = 0x0703

// Bus is an I2C adapter opened through /dev/i2c-N.
type Bus struct {
	mu   sync.Mutex
	fd   int
	addr uint16
	open bool
}

func OpenBus(n int) (*Bus, error) {
	path := fmt.Sprintf("/dev/i2c-%d", n)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Bus{fd: fd, open: true}, nil
}

// Tx writes w to addr and then, if r is non-empty, reads len(r) bytes back.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return fmt.Errorf("i2c bus closed")
	}
	if addr != b.addr {
		if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("select i2c address 0x%02x: %w", addr, err)
		}
		b.addr = addr
	}
	if len(w) > 0 {
		if _, err := unix.Write(b.fd, w); err != nil {
			return fmt.Errorf("i2c write to 0x%02x: %w", addr, err)
		}
	}
	if len(r) > 0 {
		if _, err := unix.Read(b.fd, r); err != nil {
			return fmt.Errorf("i2c read from 0x%02x: %w", addr, err)
		}
	}
	return nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	b.open = false
	return unix.Close(b.fd)
}
