// Package apperr defines the error taxonomy shared across the service.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means aggregation found zero usable observations.
	ErrNoData = errors.New("no usable observations")

	// ErrEmptyDataset means the renderer was handed zero records.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrLocationNotFound means geocoding returned zero matches.
	ErrLocationNotFound = errors.New("location not found")
)

// ValidationError reports a bad or missing request parameter.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UpstreamError reports a failed or non-2xx upstream fetch. Status and Body
// carry whatever the upstream returned, for diagnostics only.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("upstream %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// CacheError wraps a memory-tier or durable-backend failure. It is always
// recovered inside the cache manager and never reaches a request handler.
type CacheError struct {
	Op  string
	Err error
}

func (e *CacheError) Error() string { return fmt.Sprintf("cache %s: %v", e.Op, e.Err) }

func (e *CacheError) Unwrap() error { return e.Err }
