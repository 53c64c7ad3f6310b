package audio

import "math"

// silentBelow is the linear level under which output is muted outright.
const silentBelow = 0.01

// volumeToPower maps a linear level (0..1) onto the base-2 exponent used by effects.Volume.
// 1 is unity gain, 0.5 is -1 (half amplitude).
func volumeToPower(vol float64) float64 {
	if vol <= silentBelow {
		return -10
	}
	return math.Log2(vol)
}

func clampVolume(vol float64) float64 {
	if vol < 0 {
		return 0
	}
	if vol > 1 {
		return 1
	}
	return vol
}
