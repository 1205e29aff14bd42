package calibration

import (
	"math"
	"strconv"
	"strings"
)

// Key describes one calibration key: its documented name, a short help line,
// and the accessors that validate and apply a raw textual value.
type Key struct {
	Name string
	Help string

	set func(*Config, string) bool
	get func(*Config) string
}

// Keys returns the documented calibration keys in presentation order.
func Keys() []Key {
	out := make([]Key, len(keyTable))
	copy(out, keyTable)
	return out
}

// Value renders the key's current value in cfg.
func (k Key) Value(cfg *Config) string {
	if k.get == nil || cfg == nil {
		return ""
	}
	return k.get(cfg)
}

func lookupKey(name string) (Key, bool) {
	idx, ok := keyIndex[name]
	if !ok {
		return Key{}, false
	}
	return keyTable[idx], true
}

var keyTable = []Key{
	intKey("max_engine_speed", "upper bound of every emitted speed (rpm)", 1, func(c *Config) *int { return &c.MaxEngineSpeed }),
	floatKey("brake_gain_rpm_per_deg", "speed removed per degree of brake per row", func(c *Config) *float64 { return &c.BrakeGain }),
	floatKey("gear_acc_multiplier_g1", "accelerator multiplier in gear 1", func(c *Config) *float64 { return &c.GearMultipliers[1] }),
	floatKey("gear_acc_multiplier_g2", "accelerator multiplier in gear 2", func(c *Config) *float64 { return &c.GearMultipliers[2] }),
	floatKey("gear_acc_multiplier_g3", "accelerator multiplier in gear 3", func(c *Config) *float64 { return &c.GearMultipliers[3] }),
	floatKey("gear_acc_multiplier_g4", "accelerator multiplier in gear 4", func(c *Config) *float64 { return &c.GearMultipliers[4] }),
	floatKey("gear_acc_multiplier_g5", "accelerator multiplier in gear 5", func(c *Config) *float64 { return &c.GearMultipliers[5] }),

	floatKey("cc_kp", "cruise proportional gain", func(c *Config) *float64 { return &c.Cruise.Kp }),
	intKey("cc_max_step_rpm", "cruise correction limit per row", 0, func(c *Config) *int { return &c.Cruise.MaxStep }),
	intKey("cc_gear_min", "lowest gear in which cruise engages", 0, func(c *Config) *int { return &c.Cruise.GearMin }),
	intKey("cc_target_min_rpm", "lowest accepted cruise target", 0, func(c *Config) *int { return &c.Cruise.TargetMin }),
	intKey("cc_target_max_rpm", "highest accepted cruise target", 0, func(c *Config) *int { return &c.Cruise.TargetMax }),

	intKey("drag_rpm_per_iter", "coastdown speed loss per row", 0, func(c *Config) *int { return &c.DragPerRow }),

	intKey("idle_target_rpm", "idle speed floor", 0, func(c *Config) *int { return &c.Idle.Target }),
	floatKey("idle_kp", "idle proportional gain", func(c *Config) *float64 { return &c.Idle.Kp }),
	intKey("idle_max_step_rpm", "idle correction limit per row", 0, func(c *Config) *int { return &c.Idle.MaxStep }),
	intKey("idle_gear_max", "highest gear in which idle control runs", 0, func(c *Config) *int { return &c.Idle.GearMax }),

	intKey("slew_max_rise_rpm", "largest rise of the emitted speed per row", 0, func(c *Config) *int { return &c.Slew.MaxRise }),
	intKey("slew_max_fall_rpm", "largest fall of the emitted speed per row", 0, func(c *Config) *int { return &c.Slew.MaxFall }),

	intKey("limp_acc_overlap_deg", "accelerator angle counted as pedal overlap", 0, func(c *Config) *int { return &c.Limp.AccOverlapDeg }),
	intKey("limp_brk_overlap_deg", "brake angle counted as pedal overlap", 0, func(c *Config) *int { return &c.Limp.BrakeOverlapDeg }),
	intKey("limp_rows_confirm", "consecutive overlap rows that latch limp mode", 1, func(c *Config) *int { return &c.Limp.RowsConfirm }),
	intKey("limp_max_speed_rpm", "speed cap while limp mode is latched", 0, func(c *Config) *int { return &c.Limp.MaxSpeed }),
	floatKey("limp_acc_gain_scale", "accepted for compatibility; not applied by any stage", func(c *Config) *float64 { return &c.Limp.AccGainScale }),
	boolKey("limp_clear_on_ign_off", "ignition off clears the limp latch", func(c *Config) *bool { return &c.Limp.ClearOnIgnitionOff }),

	intKey("rev_soft_limit_rpm", "soft speed ceiling", 0, func(c *Config) *int { return &c.Rev.SoftLimit }),
	intKey("rev_hard_limit_rpm", "hard-cut activation threshold", 0, func(c *Config) *int { return &c.Rev.HardLimit }),
	intKey("rev_hysteresis_rpm", "release margin below the hard limit", 0, func(c *Config) *int { return &c.Rev.Hysteresis }),
	intKey("rev_hard_cut_step_rpm", "forced speed reduction per row while cutting", 0, func(c *Config) *int { return &c.Rev.CutStep }),
	intKey("rev_cooldown_rows", "minimum rows a hard cut stays active", 0, func(c *Config) *int { return &c.Rev.CooldownRows }),

	intKey("bto_brake_deg", "brake angle that arms the override", 0, func(c *Config) *int { return &c.BTO.BrakeDeg }),
	intKey("bto_acc_min_deg", "accelerator angle above which the override applies", 0, func(c *Config) *int { return &c.BTO.AccMinDeg }),
	floatKey("bto_acc_scale", "accelerator scale while overriding", func(c *Config) *float64 { return &c.BTO.AccScale }),
	intKey("bto_release_ramp_rows", "rows used to restore the accelerator after release", 0, func(c *Config) *int { return &c.BTO.ReleaseRampRows }),
	boolKey("bto_reset_on_ign_off", "ignition off resets the release ramp", func(c *Config) *bool { return &c.BTO.ResetOnIgnitionOff }),
}

var keyIndex = func() map[string]int {
	idx := make(map[string]int, len(keyTable))
	for i, k := range keyTable {
		idx[k.Name] = i
	}
	return idx
}()

func intKey(name, help string, lo int, field func(*Config) *int) Key {
	return Key{
		Name: name,
		Help: help,
		set: func(c *Config, raw string) bool {
			v, ok := parseInt(raw)
			if !ok || v < lo {
				return false
			}
			*field(c) = v
			return true
		},
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
	}
}

func floatKey(name, help string, field func(*Config) *float64) Key {
	return Key{
		Name: name,
		Help: help,
		set: func(c *Config, raw string) bool {
			v, ok := parseFloat(raw)
			if !ok || v < 0 {
				return false
			}
			*field(c) = v
			return true
		},
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'f', -1, 64) },
	}
}

func boolKey(name, help string, field func(*Config) *bool) Key {
	return Key{
		Name: name,
		Help: help,
		set: func(c *Config, raw string) bool {
			v, ok := parseBool(raw)
			if !ok {
				return false
			}
			*field(c) = v
			return true
		},
		get: func(c *Config) string {
			if *field(c) {
				return "1"
			}
			return "0"
		},
	}
}

const maxCalibrationInt = math.MaxInt32

func parseFloat(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseInt accepts integral and fractional spellings; fractions truncate
// toward zero.
func parseInt(raw string) (int, bool) {
	v, ok := parseFloat(raw)
	if !ok || math.Abs(v) > maxCalibrationInt {
		return 0, false
	}
	return int(v), true
}

func parseBool(raw string) (bool, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	switch trimmed {
	case "yes", "on", "enabled":
		return true, true
	case "no", "off", "disabled":
		return false, true
	}
	if v, err := strconv.ParseBool(trimmed); err == nil {
		return v, true
	}
	if v, ok := parseInt(trimmed); ok {
		return v != 0, true
	}
	return false, false
}
