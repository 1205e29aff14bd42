package calibration

const (
	defaultMaxEngineSpeed = 2000
	defaultBrakeGain      = 4

	defaultCruiseKp        = 0.10
	defaultCruiseMaxStep   = 50
	defaultCruiseGearMin   = 3
	defaultCruiseTargetMin = 800
	defaultCruiseTargetMax = 1800

	defaultDragPerRow = 5

	defaultIdleTarget  = 600
	defaultIdleKp      = 0.20
	defaultIdleMaxStep = 40
	defaultIdleGearMax = 3

	defaultSlewMaxRise = 200
	defaultSlewMaxFall = 300

	defaultLimpAccOverlapDeg   = 10
	defaultLimpBrakeOverlapDeg = 10
	defaultLimpRowsConfirm     = 3
	defaultLimpMaxSpeed        = 1200
	defaultLimpAccGainScale    = 0.5

	defaultRevSoftLimit    = 1900
	defaultRevHardLimit    = 1950
	defaultRevHysteresis   = 100
	defaultRevCutStep      = 50
	defaultRevCooldownRows = 5

	defaultBTOBrakeDeg        = 5
	defaultBTOAccMinDeg       = 5
	defaultBTOAccScale        = 0.2
	defaultBTOReleaseRampRows = 5
)

var defaultGearMultipliers = [MaxGear + 1]float64{0, 0.60, 0.85, 1.00, 1.10, 1.20}

// Default returns a Config populated with the documented fallback values.
func Default() Config {
	return Config{
		MaxEngineSpeed:  defaultMaxEngineSpeed,
		BrakeGain:       defaultBrakeGain,
		GearMultipliers: defaultGearMultipliers,
		Cruise: Cruise{
			Kp:        defaultCruiseKp,
			MaxStep:   defaultCruiseMaxStep,
			GearMin:   defaultCruiseGearMin,
			TargetMin: defaultCruiseTargetMin,
			TargetMax: defaultCruiseTargetMax,
		},
		DragPerRow: defaultDragPerRow,
		Idle: Idle{
			Target:  defaultIdleTarget,
			Kp:      defaultIdleKp,
			MaxStep: defaultIdleMaxStep,
			GearMax: defaultIdleGearMax,
		},
		Slew: Slew{
			MaxRise: defaultSlewMaxRise,
			MaxFall: defaultSlewMaxFall,
		},
		Limp: Limp{
			AccOverlapDeg:      defaultLimpAccOverlapDeg,
			BrakeOverlapDeg:    defaultLimpBrakeOverlapDeg,
			RowsConfirm:        defaultLimpRowsConfirm,
			MaxSpeed:           defaultLimpMaxSpeed,
			AccGainScale:       defaultLimpAccGainScale,
			ClearOnIgnitionOff: true,
		},
		Rev: Rev{
			SoftLimit:    defaultRevSoftLimit,
			HardLimit:    defaultRevHardLimit,
			Hysteresis:   defaultRevHysteresis,
			CutStep:      defaultRevCutStep,
			CooldownRows: defaultRevCooldownRows,
		},
		BTO: BTO{
			BrakeDeg:           defaultBTOBrakeDeg,
			AccMinDeg:          defaultBTOAccMinDeg,
			AccScale:           defaultBTOAccScale,
			ReleaseRampRows:    defaultBTOReleaseRampRows,
			ResetOnIgnitionOff: true,
		},
	}
}
