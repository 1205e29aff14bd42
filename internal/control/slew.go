package control

import "ecusim/internal/calibration"

// SlewLimit bounds the change from prev to proposed by the rise and fall
// limits and clamps the result to [0, max]. The boolean reports whether a
// rate limit was applied.
func SlewLimit(slew calibration.Slew, prev, proposed, maxSpeed int) (int, bool) {
	limited := false
	switch delta := proposed - prev; {
	case delta > slew.MaxRise:
		proposed = prev + slew.MaxRise
		limited = true
	case -delta > slew.MaxFall:
		proposed = prev - slew.MaxFall
		limited = true
	}
	return clampInt(proposed, 0, maxSpeed), limited
}

// applySlew is the terminal stage; its result is the emitted speed and the
// only value fed back to the next row.
func applySlew(cal *calibration.Config, f *frame, st *State) {
	if !f.on {
		f.speed = 0
	} else {
		f.speed, f.trace.SlewLimited = SlewLimit(cal.Slew, f.prev, f.speed, cal.MaxEngineSpeed)
	}
	st.LastSpeed = f.speed
	f.trace.Emitted = f.speed
}
