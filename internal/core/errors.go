// Package core holds cross-cutting types shared by every internal/core/*
// subpackage — presently just the error-kind classification.
package core

import "errors"

// ErrKind classifies a failure by where in the pipeline it originated,
// so a replication report or an event's error column can record *why*
// without string-matching the wrapped error text.
type ErrKind string

const (
	// Configuration covers missing/invalid env at startup or first use.
	Configuration ErrKind = "configuration"
	// Transport covers network-level failures reaching a remote system.
	Transport ErrKind = "transport"
	// UpstreamAPI covers a non-2xx response from the source store.
	UpstreamAPI ErrKind = "upstream_api"
	// DownstreamValidation covers a per-item validation error reported by the ad catalog.
	DownstreamValidation ErrKind = "downstream_validation"
	// DownstreamBatch covers a batch-level error reported by the ad catalog.
	DownstreamBatch ErrKind = "downstream_batch"
	// Signature covers webhook signature/hostname/topic rejection.
	Signature ErrKind = "signature"
)

// ClassifiedError wraps an underlying error with its ErrKind, preserving
// the original via Unwrap so callers can still errors.As into more
// specific types (e.g. *sourceclient.UpstreamError).
type ClassifiedError struct {
	Kind ErrKind
	Err  error
}

func (e *ClassifiedError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Classify wraps err with kind. A nil err returns nil.
func Classify(kind ErrKind, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Kind: kind, Err: err}
}

// KindOf extracts the ErrKind from err, returning ("", false) when err
// was never classified.
func KindOf(err error) (ErrKind, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}
