package control

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ecusim/internal/calibration"
)

func TestBaselineSpeed(t *testing.T) {
	cal := calibration.Default()
	cases := []struct {
		name                   string
		prev, acc, brake, gear int
		want                   int
	}{
		{"accelerate", 0, 20, 0, 3, 40},
		{"brake floors at zero", 100, 0, 45, 3, 0},
		{"ceiling", 1990, 45, 0, 5, 2000},
		{"accelerate and brake", 1000, 20, 5, 3, 1020},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BaselineSpeed(&cal, tc.prev, tc.acc, tc.brake, tc.gear))
		})
	}
}

func TestBaselineSpeedRoundsHalfAwayFromZero(t *testing.T) {
	cal := calibration.Default()
	cal.BrakeGain = 1.5
	assert.Equal(t, 9, BaselineSpeed(&cal, 10, 0, 1, 3))
}

func TestRoundClamp(t *testing.T) {
	assert.Equal(t, 3, roundClamp(2.5, 10))
	assert.Equal(t, 0, roundClamp(-4, 10))
	assert.Equal(t, 10, roundClamp(10.4, 10))
}
