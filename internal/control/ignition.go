package control

import "ecusim/internal/calibration"

// EngineState maps the ignition switch to the engine-state flag.
func EngineState(ignition int) int {
	if ignition != 0 {
		return 1
	}
	return 0
}

func applyIgnition(_ *calibration.Config, f *frame, _ *State) {
	f.on = EngineState(f.in.Ignition) == 1
	f.trace.EngineOn = f.on
	if !f.on {
		f.speed = 0
	}
}
