package control

import "ecusim/internal/calibration"

// monitorLimp runs the pedal plausibility check on raw angles. The overlap
// run length saturates at the confirmation count; there is no automatic
// un-latching, only the optional ignition-off clear.
func monitorLimp(cal *calibration.Config, f *frame, st *State) {
	defer func() {
		f.trace.LimpLatched = st.LimpLatched
		f.trace.OverlapRows = st.OverlapRows
	}()

	if !f.on && cal.Limp.ClearOnIgnitionOff {
		st.LimpLatched = false
		st.OverlapRows = 0
		return
	}

	overlap := f.on &&
		f.in.AccDeg >= cal.Limp.AccOverlapDeg &&
		f.in.BrakeDeg >= cal.Limp.BrakeOverlapDeg
	if !overlap {
		st.OverlapRows = 0
		return
	}

	if st.OverlapRows < cal.Limp.RowsConfirm {
		st.OverlapRows++
	}
	if !st.LimpLatched && st.OverlapRows >= cal.Limp.RowsConfirm {
		st.LimpLatched = true
		f.trace.LimpLatchedNow = true
	}
}

func applyLimpCap(cal *calibration.Config, f *frame, st *State) {
	if f.on && st.LimpLatched {
		if limit := cal.LimpCap(); f.speed > limit {
			f.speed = limit
			f.trace.LimpCapped = true
		}
	}
	f.trace.Limp = f.speed
}
