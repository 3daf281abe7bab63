package domain

import (
	"fmt"
	"math"
)

const (
	// MinDistanceKm clamps the distance before the log decay so a fire
	// sitting exactly on an asset cannot produce -Inf.
	MinDistanceKm = 0.01

	// HorizonReferenceHours is the horizon at which the horizon factor
	// equals 1. Shorter horizons scale the contribution down, longer
	// horizons scale it up.
	HorizonReferenceHours = 24.0

	// MaxHorizonHours caps the forecast horizon. Fire weather beyond two
	// days is not meaningful at this model's resolution.
	MaxHorizonHours = 48
)

// ScoreWeights are the tunable coefficients of the risk score. They are
// policy, not structure: scenario replay records the weights alongside the
// inputs so a recorded run reproduces bit-for-bit.
type ScoreWeights struct {
	Bias       float64 `json:"bias"`
	Distance   float64 `json:"distance"`   // multiplies -ln(distance_km)
	Confidence float64 `json:"confidence"` // multiplies confidence/100
	Wind       float64 `json:"wind"`       // multiplies the alignment factor
	Horizon    float64 `json:"horizon"`    // multiplies horizon_hours/24
}

// DefaultScoreWeights returns the demo coefficients. With these, a fire
// 3.6 km upwind of a substation at confidence 85 on a 24 hour horizon
// scores above 0.7.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Bias:       -0.5,
		Distance:   1.1,
		Confidence: 1.5,
		Wind:       1.2,
		Horizon:    0.5,
	}
}

// Score combines distance decay, detection confidence, wind alignment, and
// the forecast horizon into a risk value strictly inside (0, 1) via a
// logistic transform. Score is monotonically non-increasing in distance and
// non-decreasing in alignment.
func Score(distanceKm, confidencePct, windAlignment float64, horizonHours int, w ScoreWeights) (float64, error) {
	if confidencePct < 0 || confidencePct > 100 || math.IsNaN(confidencePct) {
		return 0, fmt.Errorf("%w: confidence %v outside [0, 100]", ErrInvalidInput, confidencePct)
	}
	if horizonHours <= 0 || horizonHours > MaxHorizonHours {
		return 0, fmt.Errorf("%w: horizon %d hours outside [1, %d]", ErrInvalidInput, horizonHours, MaxHorizonHours)
	}

	d := math.Max(distanceKm, MinDistanceKm)
	x := w.Bias +
		w.Distance*(-math.Log(d)) +
		w.Confidence*(confidencePct/100) +
		w.Wind*windAlignment +
		w.Horizon*(float64(horizonHours)/HorizonReferenceHours)
	return sigmoid(x), nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
