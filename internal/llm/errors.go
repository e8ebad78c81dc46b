package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies generation failures so callers can pick between
// retrying, falling back and surfacing the error.
type ErrorKind int

const (
	// KindRateLimited means the provider rejected the call with a rate
	// limit; retryable with backoff.
	KindRateLimited ErrorKind = iota
	// KindTimeout means the caller's deadline expired or the attempt
	// timed out.
	KindTimeout
	// KindUnavailable means a transient network or server failure.
	KindUnavailable
	// KindInvalidRequest means auth failure or a malformed request; never
	// retried.
	KindInvalidRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindUnavailable:
		return "unavailable"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// GenerationError is the typed error returned by the LLM client.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation failed: %s", e.Kind)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error kind may be retried at all.
func (k ErrorKind) Retryable() bool {
	return k != KindInvalidRequest
}

// AsGenerationError extracts a GenerationError from err, wrapping unknown
// errors as KindUnavailable so every failure carries a kind.
func AsGenerationError(err error) *GenerationError {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return &GenerationError{Kind: KindUnavailable, Err: err}
}
