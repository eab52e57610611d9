package comfort

import "math"

// HumidityWeight is how much one percent of relative humidity adds to the
// felt temperature.
const HumidityWeight = 0.05

// Index combines the smoothed temperature (°F) and relative humidity (%)
// into the weather index that drives both the HVAC and the fire alarm.
func Index(avgF, humidity int) int {
	return int(math.RoundToEven(float64(avgF) + HumidityWeight*float64(humidity)))
}
