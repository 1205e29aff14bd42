package calibration

import (
	"fmt"
	"strconv"
)

// Correction records one value Normalize changed to restore an invariant.
type Correction struct {
	Key    string
	From   string
	To     string
	Reason string
}

func (c Correction) String() string {
	return fmt.Sprintf("%s: %s -> %s (%s)", c.Key, c.From, c.To, c.Reason)
}

// Normalize clamps every parameter into its domain and enforces the
// cross-key invariants. It is idempotent: a normalized Config comes back
// unchanged with no corrections.
func (c *Config) Normalize() []Correction {
	var out []Correction
	fixInt := func(key string, field *int, want int, reason string) {
		if *field == want {
			return
		}
		out = append(out, Correction{Key: key, From: strconv.Itoa(*field), To: strconv.Itoa(want), Reason: reason})
		*field = want
	}
	fixFloat := func(key string, field *float64, want float64, reason string) {
		if *field == want {
			return
		}
		out = append(out, Correction{
			Key:    key,
			From:   strconv.FormatFloat(*field, 'f', -1, 64),
			To:     strconv.FormatFloat(want, 'f', -1, 64),
			Reason: reason,
		})
		*field = want
	}
	nonNegative := func(key string, field *int) {
		if *field < 0 {
			fixInt(key, field, 0, "must be non-negative")
		}
	}
	nonNegativeFloat := func(key string, field *float64) {
		if *field < 0 {
			fixFloat(key, field, 0, "must be non-negative")
		}
	}
	unitInterval := func(key string, field *float64) {
		switch {
		case *field < 0:
			fixFloat(key, field, 0, "must be within [0,1]")
		case *field > 1:
			fixFloat(key, field, 1, "must be within [0,1]")
		}
	}

	if c.MaxEngineSpeed < 1 {
		fixInt("max_engine_speed", &c.MaxEngineSpeed, defaultMaxEngineSpeed, "must be positive")
	}
	nonNegativeFloat("brake_gain_rpm_per_deg", &c.BrakeGain)
	for gear := MinGear; gear <= MaxGear; gear++ {
		nonNegativeFloat(fmt.Sprintf("gear_acc_multiplier_g%d", gear), &c.GearMultipliers[gear])
	}

	nonNegativeFloat("cc_kp", &c.Cruise.Kp)
	nonNegative("cc_max_step_rpm", &c.Cruise.MaxStep)
	nonNegative("cc_gear_min", &c.Cruise.GearMin)
	nonNegative("cc_target_min_rpm", &c.Cruise.TargetMin)
	nonNegative("cc_target_max_rpm", &c.Cruise.TargetMax)
	if c.Cruise.TargetMax < c.Cruise.TargetMin {
		fixInt("cc_target_max_rpm", &c.Cruise.TargetMax, c.Cruise.TargetMin, "must not be below cc_target_min_rpm")
	}

	nonNegative("drag_rpm_per_iter", &c.DragPerRow)

	nonNegative("idle_target_rpm", &c.Idle.Target)
	nonNegativeFloat("idle_kp", &c.Idle.Kp)
	nonNegative("idle_max_step_rpm", &c.Idle.MaxStep)
	nonNegative("idle_gear_max", &c.Idle.GearMax)

	nonNegative("slew_max_rise_rpm", &c.Slew.MaxRise)
	nonNegative("slew_max_fall_rpm", &c.Slew.MaxFall)

	nonNegative("limp_acc_overlap_deg", &c.Limp.AccOverlapDeg)
	nonNegative("limp_brk_overlap_deg", &c.Limp.BrakeOverlapDeg)
	if c.Limp.RowsConfirm < 1 {
		fixInt("limp_rows_confirm", &c.Limp.RowsConfirm, 1, "must be at least 1")
	}
	nonNegative("limp_max_speed_rpm", &c.Limp.MaxSpeed)
	unitInterval("limp_acc_gain_scale", &c.Limp.AccGainScale)

	nonNegative("rev_hard_limit_rpm", &c.Rev.HardLimit)
	nonNegative("rev_soft_limit_rpm", &c.Rev.SoftLimit)
	nonNegative("rev_hysteresis_rpm", &c.Rev.Hysteresis)
	nonNegative("rev_hard_cut_step_rpm", &c.Rev.CutStep)
	nonNegative("rev_cooldown_rows", &c.Rev.CooldownRows)
	if c.Rev.SoftLimit >= c.Rev.HardLimit {
		fixInt("rev_soft_limit_rpm", &c.Rev.SoftLimit, max(c.Rev.HardLimit-1, 0), "must be below rev_hard_limit_rpm")
	}

	nonNegative("bto_brake_deg", &c.BTO.BrakeDeg)
	nonNegative("bto_acc_min_deg", &c.BTO.AccMinDeg)
	unitInterval("bto_acc_scale", &c.BTO.AccScale)
	nonNegative("bto_release_ramp_rows", &c.BTO.ReleaseRampRows)

	return out
}
