package calibration

// MinGear and MaxGear bound the gearbox positions the calibration covers.
const (
	MinGear = 1
	MaxGear = 5
)

// Cruise contains the cruise-control stage parameters.
type Cruise struct {
	Kp        float64 // proportional gain applied to the speed error
	MaxStep   int     // rpm correction limit per row, both directions
	GearMin   int     // lowest gear in which cruise may engage
	TargetMin int     // rpm
	TargetMax int     // rpm, additionally bounded by MaxEngineSpeed
}

// Idle contains the idle-control stage parameters.
type Idle struct {
	Target  int // rpm floor the controller pulls toward
	Kp      float64
	MaxStep int // rpm added per row at most
	GearMax int // highest gear in which idle control runs
}

// Slew bounds how quickly the emitted engine speed may change per row.
type Slew struct {
	MaxRise int
	MaxFall int
}

// Limp contains the pedal-plausibility latch parameters.
type Limp struct {
	AccOverlapDeg      int
	BrakeOverlapDeg    int
	RowsConfirm        int
	MaxSpeed           int
	AccGainScale       float64 // parsed and clamped to [0,1], not applied
	ClearOnIgnitionOff bool
}

// Rev contains the soft ceiling and hysteretic hard-cut parameters.
type Rev struct {
	SoftLimit    int
	HardLimit    int
	Hysteresis   int
	CutStep      int
	CooldownRows int
}

// BTO contains the brake-throttle-override parameters.
type BTO struct {
	BrakeDeg           int
	AccMinDeg          int
	AccScale           float64 // [0,1]
	ReleaseRampRows    int
	ResetOnIgnitionOff bool
}

// Config is the immutable calibration set for one run.
//
// Sections by stage:
//   - MaxEngineSpeed, BrakeGain, GearMultipliers: baseline torque model
//   - Cruise: cruise-control correction toward a target speed
//   - DragPerRow: coastdown engine braking
//   - Idle: idle-floor correction
//   - Slew: rise/fall rate bounds of the emitted value
//   - Limp: raw pedal overlap latch and speed cap
//   - Rev: soft ceiling and hard-cut with hysteresis and cooldown
//   - BTO: brake-throttle override and release ramp
type Config struct {
	MaxEngineSpeed  int
	BrakeGain       float64
	GearMultipliers [MaxGear + 1]float64 // index 0 unused
	Cruise          Cruise
	DragPerRow      int
	Idle            Idle
	Slew            Slew
	Limp            Limp
	Rev             Rev
	BTO             BTO
}

// GearMultiplier returns the accelerator multiplier for gear, clamping the
// gear into the calibrated range.
func (c *Config) GearMultiplier(gear int) float64 {
	if gear < MinGear {
		gear = MinGear
	}
	if gear > MaxGear {
		gear = MaxGear
	}
	return c.GearMultipliers[gear]
}

// LimpCap returns the effective speed ceiling while limp mode is latched.
func (c *Config) LimpCap() int {
	return min(c.Limp.MaxSpeed, c.MaxEngineSpeed)
}
