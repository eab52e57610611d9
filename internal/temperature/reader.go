package temperature

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrSensor marks a failed hardware read. Callers drop the sample and try
// again on the next cycle.
var ErrSensor = errors.New("temperature sensor read failed")

type Reader interface {
	ReadCelsius() (float64, error)
}

// SysfsReader reads a DHT11 through the kernel dht11 IIO driver, which
// exposes the temperature in milli-degrees Celsius, e.g.
// /sys/bus/iio/devices/iio:device0/in_temp_input.
type SysfsReader struct {
	path string
}

func NewSysfsReader(path string) *SysfsReader {
	return &SysfsReader{path: path}
}

func (r *SysfsReader) ReadCelsius() (float64, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		// the dht11 driver returns EIO/ETIMEDOUT on a bad checksum
		return 0, fmt.Errorf("%w: %v", ErrSensor, err)
	}
	return parseMilliCelsius(string(data))
}

func parseMilliCelsius(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty reading", ErrSensor)
	}

	milli, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed reading %q", ErrSensor, trimmed)
	}
	return float64(milli) / 1000.0, nil
}
