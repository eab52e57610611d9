// Package lcd drives an HD44780 16x2 character LCD behind a PCF8574 I2C
// backpack, the module usually sold as "LCD1602 I2C".
package lcd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/hd44780i2c"
)

const (
	DefaultAddress = 0x27
	Width          = 16
	Height         = 2
)

// Device adapts the HD44780 driver to the display package's interface.
type Device struct {
	dev hd44780i2c.Device
	bus drivers.I2C
}

func New(bus drivers.I2C, addr uint8) (*Device, error) {
	if addr == 0 {
		addr = DefaultAddress
	}

	dev := hd44780i2c.New(bus, addr)
	if err := dev.Configure(hd44780i2c.Config{Width: Width, Height: Height}); err != nil {
		return nil, fmt.Errorf("configure lcd at 0x%02x: %w", addr, err)
	}
	dev.BacklightOn(true)

	log.Info().Str("addr", fmt.Sprintf("0x%02x", addr)).Msg("LCD initialized")
	return &Device{dev: dev, bus: bus}, nil
}

func (d *Device) Clear() error {
	d.dev.ClearDisplay()
	return nil
}

func (d *Device) Write(col, row int, text string) error {
	if row < 0 || row >= Height || col < 0 || col >= Width {
		return fmt.Errorf("position %d,%d outside %dx%d display", col, row, Width, Height)
	}
	if len(text) > Width-col {
		text = text[:Width-col]
	}
	d.dev.SetCursor(uint8(col), uint8(row))
	d.dev.Print([]byte(text))
	return nil
}

// Close blanks the screen and turns the backlight off.
func (d *Device) Close() error {
	d.dev.ClearDisplay()
	d.dev.BacklightOn(false)
	if c, ok := d.bus.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
