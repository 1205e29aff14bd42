package control

import (
	"math"

	"ecusim/internal/calibration"
)

// applyBTO derives the effective accelerator angle. With the brake at or
// above the arming angle and the accelerator above its minimum, the raw
// angle is scaled down. Once the override clears, the effective angle climbs
// back to the raw angle over the configured number of ramp rows, covering an
// equal share of the remaining distance each row.
func applyBTO(cal *calibration.Config, f *frame, st *State) {
	if !f.on {
		if cal.BTO.ResetOnIgnitionOff {
			st.BTORampRows = 0
			st.BTOLastEffective = 0
		}
		f.acc = 0
		f.trace.EffectiveAcc = 0
		return
	}

	raw := f.in.AccDeg
	override := f.in.BrakeDeg >= cal.BTO.BrakeDeg && raw > cal.BTO.AccMinDeg

	var eff int
	switch {
	case override:
		eff = clampInt(int(math.Round(float64(raw)*cal.BTO.AccScale)), 0, raw)
		st.BTORampRows = cal.BTO.ReleaseRampRows
		f.trace.BTOOverride = true
	case st.BTORampRows > 0 && raw > st.BTOLastEffective:
		remaining := raw - st.BTOLastEffective
		step := int(math.Round(float64(remaining) / float64(st.BTORampRows)))
		eff = clampInt(st.BTOLastEffective+step, 0, raw)
		st.BTORampRows--
		f.trace.BTORamping = true
	default:
		eff = raw
		st.BTORampRows = 0
	}

	st.BTOLastEffective = eff
	f.acc = eff
	f.trace.EffectiveAcc = eff
}
