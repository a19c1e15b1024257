package source

import "errors"

// Errors returned while opening a dataset or validating its timestamps.
var (
	// ErrNotFound is returned when the backing file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrFormat is returned when the file is not a recognised tabular format
	// or its content cannot be parsed as one.
	ErrFormat = errors.New("unsupported format")

	// ErrPermission is returned when the file cannot be read.
	ErrPermission = errors.New("permission denied")

	// ErrEmptyInput is returned when no data rows remain after dropping rows
	// with missing fields.
	ErrEmptyInput = errors.New("empty input")

	// ErrNotUnixTime is returned for timestamps outside the Unix millisecond range.
	ErrNotUnixTime = errors.New("not unix time")
)
