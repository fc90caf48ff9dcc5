package wecom

import (
	"errors"
	"fmt"
	"time"
)

// ============================================================================
// Vendor Error Codes
// ============================================================================

const (
	// CodeOK is returned by every endpoint on success.
	CodeOK = 0

	// CodeInvalidCredential means the access token used for the call is no
	// longer accepted, even if it has not reached its declared lifetime.
	CodeInvalidCredential = 40014
)

// ErrUninitialized is returned when a send is attempted without any access
// token ever having been obtained.
var ErrUninitialized = errors.New("wecom: no access token has been obtained")

// ============================================================================
// RateLimitedError
// ============================================================================

// RateLimitedError is returned by a refresh attempted before the backoff
// window since the last successful fetch has elapsed. Callers can wait
// Backoff-Elapsed and try again.
type RateLimitedError struct {
	Elapsed time.Duration
	Backoff time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("wecom: token refreshed %ds ago, backoff is %ds",
		e.ElapsedSeconds(), int64(e.Backoff/time.Second))
}

// ElapsedSeconds is the whole number of seconds since the last successful fetch.
func (e *RateLimitedError) ElapsedSeconds() int64 {
	return int64(e.Elapsed / time.Second)
}

// RetryAfter reports how long the caller should wait before refreshing again.
func (e *RateLimitedError) RetryAfter() time.Duration {
	if d := e.Backoff - e.Elapsed; d > 0 {
		return d
	}
	return 0
}

// ============================================================================
// VendorError
// ============================================================================

// VendorError is a non-zero errcode reported by the token endpoint, or by the
// send endpoint when it is surfaced through SendOutcome.Err.
type VendorError struct {
	Code    int64
	Message string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("wecom: vendor rejected request: errcode=%d errmsg=%q", e.Code, e.Message)
}

// ============================================================================
// TransportError
// ============================================================================

// TransportError covers network failures, timeouts, unexpected HTTP statuses
// and undecodable bodies. It is never retried by this package.
type TransportError struct {
	// Op names the step that failed, e.g. "fetch token" or "send message".
	Op string

	// StatusCode is set when the server answered with a non-200 status.
	StatusCode int

	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("wecom: %s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("wecom: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is, or wraps, a *RateLimitedError.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}
