package temperature

import "sync"

// FakeReader replays scripted readings. A nil entry in Errors at the same
// index makes that read succeed; a non-nil one fails it.
type FakeReader struct {
	mu      sync.Mutex
	Celsius []float64
	Errors  []error
	index   int
}

func NewFakeReader(celsius ...float64) *FakeReader {
	return &FakeReader{Celsius: celsius}
}

// ReadCelsius returns the next scripted value, repeating the last one once
// the script is exhausted.
func (f *FakeReader) ReadCelsius() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Celsius) == 0 {
		return 0, ErrSensor
	}

	i := f.index
	if f.index < len(f.Celsius)-1 {
		f.index++
	}
	if i < len(f.Errors) && f.Errors[i] != nil {
		return 0, f.Errors[i]
	}
	return f.Celsius[i], nil
}
