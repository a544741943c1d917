// Package errors defines the scan engine error taxonomy. Component-level
// network errors never appear here: those are soft failures handled inside
// the orchestrator. Only submission-time validation and orchestrator-level
// failures are surfaced to callers.
package errors

import "errors"

var (
	// Submission errors
	ErrInvalidTarget    = errors.New("invalid target: expected a hostname or IPv4 address")
	ErrUnknownScanType  = errors.New("unknown scan type")
	ErrUnknownComponent = errors.New("unknown scan component")
	ErrNoComponents     = errors.New("no scan components enabled")

	// Lookup errors
	ErrJobNotFound = errors.New("job not found")

	// Job-level failures
	ErrScanTimeout = errors.New("scan exceeded the mode timeout ceiling")
	ErrStorage     = errors.New("job storage unavailable")
)

// Reason codes carried by failed jobs alongside the human message.
const (
	ReasonTimeout = "timeout"
	ReasonStorage = "storage_error"
)
