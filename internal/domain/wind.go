package domain

import "math"

// AlignmentFactor maps the angle between a fire→asset bearing and the wind's
// from-direction onto [0, 1]: 1 when the wind blows directly from the fire
// toward the asset, 0 when directly away. The difference is normalized to
// [-180, 180] before the cosine, so the function is periodic with period 360.
func AlignmentFactor(fireToAssetBearing, windFromDegrees float64) float64 {
	delta := normalizeAngle(fireToAssetBearing - windFromDegrees)
	return (math.Cos(radians(delta)) + 1) / 2
}

// normalizeAngle folds an angle in degrees into [-180, 180].
func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	switch {
	case deg > 180:
		return deg - 360
	case deg < -180:
		return deg + 360
	}
	return deg
}
