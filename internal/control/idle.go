package control

import "ecusim/internal/calibration"

func idleActive(cal *calibration.Config, f *frame) bool {
	return f.on &&
		f.in.AccDeg == 0 &&
		f.in.BrakeDeg == 0 &&
		!f.in.CruiseEnabled &&
		f.in.Gear <= cal.Idle.GearMax &&
		f.prev < cal.Idle.Target
}

// applyIdle lifts the post-coastdown speed toward the idle target. The
// correction is proportional to the previous emitted speed's shortfall,
// limited to [0, max step], and never lifts the speed past the target.
func applyIdle(cal *calibration.Config, f *frame, _ *State) {
	if idleActive(cal, f) {
		f.trace.IdleActive = true
		shortfall := float64(cal.Idle.Target - f.prev)
		correction := clampFloat(cal.Idle.Kp*shortfall, 0, float64(cal.Idle.MaxStep))
		if room := float64(cal.Idle.Target - f.speed); correction > room {
			correction = max(room, 0)
		}
		f.speed = roundClamp(float64(f.speed)+correction, cal.MaxEngineSpeed)
	}
	f.trace.Idle = f.speed
}
