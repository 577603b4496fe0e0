package contracts

import (
	"errors"
	"fmt"
)

// Sentinel errors for the scan pipeline
var (
	// ErrServiceUnavailable gates pipeline start: the pre-flight health
	// check failed, the run aborts before any batch is issued.
	ErrServiceUnavailable = errors.New("analysis service unavailable")

	// ErrNoDefaultConfig is fatal: no default scan configuration exists.
	ErrNoDefaultConfig = errors.New("no default scan configuration")

	// ErrScanActive marks the single-flight guard: a run is already active.
	ErrScanActive = errors.New("scan already in progress")

	// ErrCancelled marks a cooperatively cancelled run.
	ErrCancelled = errors.New("scan cancelled")
)

// ExternalServiceError wraps a failure of an external collaborator call.
// Depending on the stage it is recovered locally (item/batch isolation) or
// aborts the run.
type ExternalServiceError struct {
	Service string // "analysis", "ml", "wikipedia"
	Op      string // operation name, e.g. "fetch-prices"
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s service %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
