package control

import "ecusim/internal/calibration"

// hardCut runs the hysteretic hard limiter and returns the adjusted speed.
//
// Inactive: a provisional or previous speed above the hard limit activates
// the cut, arms the cooldown and clamps this row to the hard limit.
// Active: the speed is held at least CutStep below the previous emitted
// speed, the cooldown counts down, and the cut releases once the previous
// speed is at or below HardLimit-Hysteresis with the cooldown exhausted.
func hardCut(rev calibration.Rev, prev, speed int, st *State, trace *Trace) int {
	if !st.HardCutActive {
		if speed > rev.HardLimit || prev > rev.HardLimit {
			st.HardCutActive = true
			st.HardCutCooldown = rev.CooldownRows
			trace.RevCutActivated = true
			speed = min(speed, rev.HardLimit)
		}
		trace.RevCutActive = st.HardCutActive
		return speed
	}

	if floor := max(prev-rev.CutStep, 0); speed > floor {
		speed = floor
	}
	if st.HardCutCooldown > 0 {
		st.HardCutCooldown--
	}
	if prev <= rev.HardLimit-rev.Hysteresis && st.HardCutCooldown == 0 {
		st.HardCutActive = false
		trace.RevCutReleased = true
	}
	trace.RevCutActive = st.HardCutActive
	return speed
}

func applyRevLimiter(cal *calibration.Config, f *frame, st *State) {
	if !f.on {
		st.HardCutActive = false
		st.HardCutCooldown = 0
		f.speed = 0
		f.trace.Rev = 0
		return
	}
	f.speed = hardCut(cal.Rev, f.prev, f.speed, st, f.trace)
	f.speed = min(f.speed, cal.Rev.SoftLimit)
	f.trace.Rev = f.speed
}
