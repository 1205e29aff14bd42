package control

import "ecusim/internal/calibration"

// BaselineSpeed is the torque model: the previous emitted speed plus the
// gear-scaled accelerator contribution minus the brake contribution, clamped
// to [0, max] and rounded half away from zero.
func BaselineSpeed(cal *calibration.Config, prev, accDeg, brakeDeg, gear int) int {
	gain := AccelGainRPMPerDeg * cal.GearMultiplier(gear)
	next := float64(prev) + float64(accDeg)*gain - float64(brakeDeg)*cal.BrakeGain
	return roundClamp(next, cal.MaxEngineSpeed)
}

func applyBaseline(cal *calibration.Config, f *frame, _ *State) {
	if !f.on {
		f.speed = 0
		f.trace.Baseline = 0
		return
	}
	f.speed = BaselineSpeed(cal, f.prev, f.acc, f.in.BrakeDeg, f.in.Gear)
	f.trace.Baseline = f.speed
}
