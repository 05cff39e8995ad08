// Package errs defines the sentinel errors shared by all sensorpipe packages.
//
// Callers compare against these values with errors.Is; packages wrap them with
// fmt.Errorf("...: %w", err) to add source or column context.
package errs

import "errors"

// Source-level errors. These are non-fatal: the affected source yields no readings
// and processing of other sources continues.
var (
	// ErrSourceUnavailable is returned when a named source cannot be opened.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrLineTooLong is returned when a physical line exceeds the configured maximum size.
	ErrLineTooLong = errors.New("line exceeds maximum size")
)

// Configuration errors. These are surfaced before any reading is processed.
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrConflictingFilter  = errors.New("conflicting filter: value is both included and excluded")
	ErrInvalidDateRange   = errors.New("invalid date range: min is after max")
	ErrInvalidTailCount   = errors.New("invalid tail count")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrFollowUnsupported  = errors.New("follow mode is not supported for this source")
	ErrInvalidUpdateRule  = errors.New("invalid update rule")
	ErrInvalidErrorRule   = errors.New("invalid error definition")
	ErrMissingErrorTable  = errors.New("error removal enabled without error definitions")
	ErrUnknownFormat      = errors.New("unknown input format")
	ErrUnknownCompression = errors.New("unknown compression type")
	ErrInvalidInterval    = errors.New("invalid poll interval")
)
