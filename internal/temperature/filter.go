package temperature

import "math"

const WindowSize = 3

// Filter keeps the last WindowSize Fahrenheit samples and reports their
// rounded mean once the window is full. The window slides after that; it is
// never reset by reporting.
type Filter struct {
	samples []float64
}

func NewFilter() *Filter {
	return &Filter{samples: make([]float64, 0, WindowSize)}
}

// Push converts a Celsius reading, appends it (evicting the oldest sample
// when full) and returns the smoothed Fahrenheit value when the window holds
// exactly WindowSize samples.
func (f *Filter) Push(celsius float64) (int, bool) {
	if len(f.samples) == WindowSize {
		f.samples = f.samples[1:]
	}
	f.samples = append(f.samples, CelsiusToFahrenheit(celsius))

	if len(f.samples) < WindowSize {
		return 0, false
	}

	var sum float64
	for _, s := range f.samples {
		sum += s
	}
	return int(math.RoundToEven(sum / WindowSize)), true
}

func (f *Filter) Len() int {
	return len(f.samples)
}

// Celsius to Fahrenheit: F = C × 9/5 + 32
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}
