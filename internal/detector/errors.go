package detector

import "errors"

// Errors returned by Detector configuration and analysis passes.
var (
	// ErrConfiguration is returned when a close column is unset or not in the schema.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidArgument is returned for a threshold outside [0, 100] or a negative interval.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrGap is returned when two consecutive records are not exactly one interval apart.
	ErrGap = errors.New("interval gap")

	// ErrComputation is returned when a percent change cannot be computed,
	// e.g. a zero previous close or a non-numeric field.
	ErrComputation = errors.New("computation error")
)
