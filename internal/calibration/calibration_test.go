package calibration_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecusim/internal/calibration"
)

func TestDefaultIsNormalized(t *testing.T) {
	cfg := calibration.Default()
	assert.Empty(t, cfg.Normalize())
	assert.Equal(t, calibration.Default(), cfg)
	assert.Less(t, cfg.Rev.SoftLimit, cfg.Rev.HardLimit)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.txt")

	cfg, report, err := calibration.Load(path)

	require.NoError(t, err)
	assert.False(t, report.Found)
	assert.Equal(t, path, report.Path)
	assert.Equal(t, calibration.Default(), cfg)
	assert.Equal(t, "default", report.Source("max_engine_speed"))
}

func TestDecodeTextDocument(t *testing.T) {
	doc := `
# engine limits
max_engine_speed = 3000
brake_gain_rpm_per_deg: 6.5   ; trailing comment
cc_kp 0.25
idle_target_rpm = 700 rpm
limp_clear_on_ign_off = no
garbage line without separator_
`
	cfg, report, err := calibration.Decode(strings.NewReader(doc), calibration.FormatText)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.MaxEngineSpeed)
	assert.Equal(t, 6.5, cfg.BrakeGain)
	assert.Equal(t, 0.25, cfg.Cruise.Kp)
	assert.Equal(t, 700, cfg.Idle.Target)
	assert.False(t, cfg.Limp.ClearOnIgnitionOff)
	assert.Equal(t, "file", report.Source("cc_kp"))
	assert.Equal(t, "default", report.Source("idle_kp"))
	require.Len(t, report.Unknown, 1)
	assert.Equal(t, "garbage", report.Unknown[0].Key)
	assert.Equal(t, 8, report.Unknown[0].Line)
}

func TestFirstValidOccurrenceWins(t *testing.T) {
	doc := strings.Join([]string{
		"max_engine_speed = fast",
		"max_engine_speed = 0",
		"max_engine_speed = 2500",
		"max_engine_speed = 2600",
	}, "\n")

	cfg, report, err := calibration.Decode(strings.NewReader(doc), calibration.FormatText)
	require.NoError(t, err)

	assert.Equal(t, 2500, cfg.MaxEngineSpeed)
	assert.Len(t, report.Rejected, 2)
	require.Len(t, report.Shadowed, 1)
	assert.Equal(t, "2600", report.Shadowed[0].Value)
}

func TestNegativeValuesAreRejected(t *testing.T) {
	doc := "slew_max_rise_rpm = -5\nbrake_gain_rpm_per_deg = -1\n"

	cfg, report, err := calibration.Decode(strings.NewReader(doc), calibration.FormatText)
	require.NoError(t, err)

	assert.Equal(t, calibration.Default().Slew.MaxRise, cfg.Slew.MaxRise)
	assert.Equal(t, calibration.Default().BrakeGain, cfg.BrakeGain)
	assert.Len(t, report.Rejected, 2)
}

func TestSoftLimitIsCorrectedBelowHardLimit(t *testing.T) {
	doc := "rev_soft_limit_rpm = 1950\nrev_hard_limit_rpm = 1950\n"

	cfg, report, err := calibration.Decode(strings.NewReader(doc), calibration.FormatText)
	require.NoError(t, err)

	assert.Equal(t, 1949, cfg.Rev.SoftLimit)
	require.Len(t, report.Corrections, 1)
	assert.Equal(t, "rev_soft_limit_rpm", report.Corrections[0].Key)
	assert.Contains(t, report.Corrections[0].String(), "1950 -> 1949")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	cfg := calibration.Default()
	cfg.MaxEngineSpeed = -10
	cfg.Cruise.TargetMin = 1500
	cfg.Cruise.TargetMax = 1000
	cfg.Limp.RowsConfirm = 0
	cfg.BTO.AccScale = 3
	cfg.Rev.HardLimit = 0
	cfg.Rev.SoftLimit = 0

	first := cfg.Normalize()
	require.NotEmpty(t, first)
	snapshot := cfg

	assert.Empty(t, cfg.Normalize())
	assert.Equal(t, snapshot, cfg)
	assert.Equal(t, 2000, cfg.MaxEngineSpeed)
	assert.Equal(t, 1500, cfg.Cruise.TargetMax)
	assert.Equal(t, 1, cfg.Limp.RowsConfirm)
	assert.Equal(t, 1.0, cfg.BTO.AccScale)
	assert.Equal(t, 0, cfg.Rev.SoftLimit)
}

func TestLimpRowsConfirmNeverBelowOne(t *testing.T) {
	cfg, report, err := calibration.Decode(strings.NewReader("limp_rows_confirm = 0\n"), calibration.FormatText)
	require.NoError(t, err)
	assert.Equal(t, calibration.Default().Limp.RowsConfirm, cfg.Limp.RowsConfirm)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "limp_rows_confirm", report.Rejected[0].Key)

	cfg = calibration.Default()
	cfg.Limp.RowsConfirm = 0
	corrections := cfg.Normalize()
	assert.Equal(t, 1, cfg.Limp.RowsConfirm)
	require.Len(t, corrections, 1)
	assert.Equal(t, "limp_rows_confirm", corrections[0].Key)
	assert.Equal(t, "must be at least 1", corrections[0].Reason)
}

func TestDecodeTOMLFlattensTables(t *testing.T) {
	doc := `
max_engine_speed = 2400

[rev]
soft_limit_rpm = 2200
hard_limit_rpm = 2300

[limp]
clear_on_ign_off = false
`
	cfg, report, err := calibration.Decode(strings.NewReader(doc), calibration.FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, 2400, cfg.MaxEngineSpeed)
	assert.Equal(t, 2200, cfg.Rev.SoftLimit)
	assert.Equal(t, 2300, cfg.Rev.HardLimit)
	assert.False(t, cfg.Limp.ClearOnIgnitionOff)
	assert.Empty(t, report.Unknown)
}

func TestDecodeYAML(t *testing.T) {
	doc := `
idle:
  target_rpm: 650
  kp: 0.3
bto_reset_on_ign_off: off
unexpected: 1
`
	cfg, report, err := calibration.Decode(strings.NewReader(doc), calibration.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 650, cfg.Idle.Target)
	assert.Equal(t, 0.3, cfg.Idle.Kp)
	assert.False(t, cfg.BTO.ResetOnIgnitionOff)
	require.Len(t, report.Unknown, 1)
	assert.Equal(t, "unexpected", report.Unknown[0].Key)
}

func TestDecodeMalformedStructuredDocument(t *testing.T) {
	_, _, err := calibration.Decode(strings.NewReader("[rev\nsoft = "), calibration.FormatTOML)
	assert.Error(t, err)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, calibration.FormatTOML, calibration.FormatForPath("/etc/cal.TOML"))
	assert.Equal(t, calibration.FormatYAML, calibration.FormatForPath("cal.yml"))
	assert.Equal(t, calibration.FormatText, calibration.FormatForPath("cal.txt"))
	assert.Equal(t, calibration.FormatText, calibration.FormatForPath("calibration"))
}

func TestWriteTextRoundTrips(t *testing.T) {
	cfg := calibration.Default()
	cfg.MaxEngineSpeed = 2600
	cfg.Idle.Kp = 0.35
	cfg.BTO.ResetOnIgnitionOff = false

	var buf bytes.Buffer
	require.NoError(t, calibration.WriteText(&buf, &cfg))

	decoded, report, err := calibration.Decode(&buf, calibration.FormatText)
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)
	assert.Len(t, report.Applied, len(calibration.Keys()))
	assert.Empty(t, report.Unknown)
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "calibration.txt")
	require.NoError(t, calibration.CreateSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rev_hard_limit_rpm = 1950")

	cfg, report, err := calibration.Load(path)
	require.NoError(t, err)
	assert.True(t, report.Found)
	assert.Equal(t, calibration.Default(), cfg)
}

func TestMapKeepsNumericTypes(t *testing.T) {
	cfg := calibration.Default()
	m := calibration.Map(&cfg)

	assert.Equal(t, 2000, m["max_engine_speed"])
	assert.Equal(t, 0.1, m["cc_kp"])
	assert.Equal(t, 1, m["limp_clear_on_ign_off"])
	assert.Len(t, m, len(calibration.Keys()))
}
