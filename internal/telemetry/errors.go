package telemetry

import "codeberg.org/mutker/trendalarm/internal/errors"

const (
	// Data Errors
	ErrDataError = errors.ErrDataError

	// Transport Errors
	ErrUnavailable = errors.ErrUnavailable
)
