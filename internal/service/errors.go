package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

var (
	// ErrTransient marks upstream faults worth retrying: timeouts,
	// connection failures, rate limiting and 5xx responses.
	ErrTransient = errors.New("transient upstream failure")
	// ErrMalformedDraft marks model output that does not parse into a valid draft.
	ErrMalformedDraft = errors.New("malformed recipe draft")
	// ErrRateLimited is returned when an upstream answers 429.
	ErrRateLimited = errors.New("upstream rate limited")
	// ErrQuotaExhausted is returned when an upstream answers 402.
	ErrQuotaExhausted = errors.New("upstream quota exhausted")
	ErrInvalidRequest = errors.New("invalid request")
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidToken   = errors.New("invalid token")
)

// GenerationError reports the pipeline stage where generation failed
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("recipe generation failed during %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is an unexpected HTTP status from an upstream service
type HTTPStatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// IsTransient reports whether err is a retryable upstream fault
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// transient wraps err so that IsTransient reports true
func transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}
