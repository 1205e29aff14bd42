package control

import "math"

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundClamp clamps v to [0, hi] and rounds half away from zero.
func roundClamp(v float64, hi int) int {
	v = clampFloat(v, 0, float64(hi))
	return clampInt(int(math.Round(v)), 0, hi)
}
