package control

import "ecusim/internal/calibration"

// Coastdown only runs when the driver has explicitly disabled cruise, not
// merely when cruise is inactive because of pedals or gear.
func coastdownActive(f *frame) bool {
	return f.on && f.in.AccDeg == 0 && f.in.BrakeDeg == 0 && !f.in.CruiseEnabled
}

func applyCoastdown(cal *calibration.Config, f *frame, _ *State) {
	if coastdownActive(f) {
		f.trace.DragActive = true
		f.speed = max(f.speed-cal.DragPerRow, 0)
	}
	f.trace.Coastdown = f.speed
}
