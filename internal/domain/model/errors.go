package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrStorageUnavailable means the cold store is required but not configured.
var ErrStorageUnavailable = errors.New("R2/object-store not configured")

// ProviderError wraps an upstream fetch failure.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider %s: %s", e.Provider, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": http %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the fetch hit its deadline.
func (e *ProviderError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// RateLimited reports whether the provider answered 429.
func (e *ProviderError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// MalformedResponseError means the upstream payload matched no known shape.
type MalformedResponseError struct {
	Provider string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("provider %s: malformed response: %s", e.Provider, e.Reason)
}
