package control

import "ecusim/internal/calibration"

// cruiseTarget bounds the requested target to the calibrated window, whose
// upper edge never exceeds the maximum engine speed.
func cruiseTarget(cal *calibration.Config, requested int) int {
	upper := min(cal.Cruise.TargetMax, cal.MaxEngineSpeed)
	lower := min(cal.Cruise.TargetMin, upper)
	return clampInt(requested, lower, upper)
}

func cruiseActive(cal *calibration.Config, f *frame) bool {
	return f.on &&
		f.in.CruiseEnabled &&
		f.in.AccDeg == 0 &&
		f.in.BrakeDeg == 0 &&
		f.in.Gear >= cal.Cruise.GearMin
}

// applyCruise adds a bounded proportional correction toward the target. The
// error is measured against the previous emitted speed, and the correction
// is added to the baseline result rather than replacing it.
func applyCruise(cal *calibration.Config, f *frame, _ *State) {
	if cruiseActive(cal, f) {
		f.trace.CruiseActive = true
		errRPM := float64(cruiseTarget(cal, f.in.CruiseTarget) - f.prev)
		step := float64(cal.Cruise.MaxStep)
		correction := clampFloat(cal.Cruise.Kp*errRPM, -step, step)
		f.speed = roundClamp(float64(f.speed)+correction, cal.MaxEngineSpeed)
	}
	f.trace.Cruise = f.speed
}
