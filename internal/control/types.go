package control

import "ecusim/internal/calibration"

const (
	// MaxPedalDeg is the upper bound of both pedal angles.
	MaxPedalDeg = 45
	// DefaultGear is assumed when the input carries no gear.
	DefaultGear = 3
	// AccelGainRPMPerDeg is the baseline accelerator gain before the gear
	// multiplier.
	AccelGainRPMPerDeg = 2.0
)

// RowInput is one row of driver and vehicle inputs.
type RowInput struct {
	Time          int64
	HasTime       bool
	Ignition      int
	AccDeg        int
	BrakeDeg      int
	Gear          int
	CruiseEnabled bool
	CruiseTarget  int
}

// NewRowInput returns an input with every optional field at its default.
func NewRowInput(ignition int) RowInput {
	return RowInput{Ignition: ignition, Gear: DefaultGear}
}

// Clamped returns a copy with angles in [0,45] and gear in [1,5].
func (in RowInput) Clamped() RowInput {
	in.AccDeg = clampInt(in.AccDeg, 0, MaxPedalDeg)
	in.BrakeDeg = clampInt(in.BrakeDeg, 0, MaxPedalDeg)
	in.Gear = clampInt(in.Gear, calibration.MinGear, calibration.MaxGear)
	return in
}

// RowOutput is the emitted result for one input row.
type RowOutput struct {
	Time        int64
	EngineState int
	EngineSpeed int
}

// State is the pipeline's persistent per-run memory. Every field starts at
// its zero value.
type State struct {
	LastSpeed int

	LimpLatched bool
	OverlapRows int

	HardCutActive   bool
	HardCutCooldown int

	BTORampRows      int
	BTOLastEffective int
}

// Trace exposes the intermediate values of one Step for diagnostics.
type Trace struct {
	EngineOn bool

	LimpLatched    bool
	LimpLatchedNow bool
	OverlapRows    int

	EffectiveAcc int
	BTOOverride  bool
	BTORamping   bool

	Baseline     int
	CruiseActive bool
	Cruise       int
	DragActive   bool
	Coastdown    int
	IdleActive   bool
	Idle         int
	LimpCapped   bool
	Limp         int

	RevCutActive    bool
	RevCutActivated bool
	RevCutReleased  bool
	Rev             int

	SlewLimited bool
	Emitted     int
}
