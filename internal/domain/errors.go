package domain

import "errors"

var (
	// ErrInvalidCoordinate reports a latitude outside [-90, 90] or a
	// longitude outside [-180, 180].
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidInput reports a confidence outside [0, 100], a
	// non-positive horizon, or a wind direction outside [0, 360].
	ErrInvalidInput = errors.New("invalid input")
)
