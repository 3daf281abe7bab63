package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignmentFactor(t *testing.T) {
	t.Run("same direction is 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, AlignmentFactor(83, 83), 1e-12)
	})

	t.Run("opposite direction is 0", func(t *testing.T) {
		assert.InDelta(t, 0.0, AlignmentFactor(83, 263), 1e-12)
	})

	t.Run("perpendicular is one half", func(t *testing.T) {
		assert.InDelta(t, 0.5, AlignmentFactor(0, 90), 1e-12)
		assert.InDelta(t, 0.5, AlignmentFactor(0, 270), 1e-12)
	})

	t.Run("periodic with period 360", func(t *testing.T) {
		for _, theta := range []float64{0, 45, 90, 135, 213.7, 359} {
			assert.InDelta(t, AlignmentFactor(theta, 30), AlignmentFactor(theta+360, 30), 1e-12)
			assert.InDelta(t, AlignmentFactor(theta, 30), AlignmentFactor(theta, 30+360), 1e-12)
		}
	})

	t.Run("symmetric around the wind direction", func(t *testing.T) {
		assert.InDelta(t, AlignmentFactor(100, 90), AlignmentFactor(80, 90), 1e-12)
	})

	t.Run("always within [0,1]", func(t *testing.T) {
		for theta := -720.0; theta <= 720; theta += 7.3 {
			f := AlignmentFactor(theta, 45)
			assert.GreaterOrEqual(t, f, 0.0)
			assert.LessOrEqual(t, f, 1.0)
		}
	})
}
