package saringan

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure scenarios
var (
	// ErrRateLimited is returned when a request is denied by admission control
	ErrRateLimited = errors.New("saringan: rate limited")

	// ErrNotFound is returned when the backing store has no record for a key
	ErrNotFound = errors.New("saringan: not found")

	// ErrClosed is returned when the coordinator has been closed
	ErrClosed = errors.New("saringan: coordinator closed")
)

// IsDenied reports whether err represents a rate limit denial. Callers must
// not retry before the window opens again.
func IsDenied(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var coordErr *CoordinatorError
	return errors.As(err, &coordErr) && coordErr.Type == ErrorTypeRateLimit
}

// IsNotFound reports whether err means the backing store has no record for
// the key. Not-found outcomes are never cached and never retried.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var coordErr *CoordinatorError
	return errors.As(err, &coordErr) && coordErr.Type == ErrorTypeNotFound
}

// Error implements error interface.
func (e *CoordinatorError) Error() string {
	if e == nil {
		return "<nil>"
	}

	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%s key=%s", msg, e.Key)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CoordinatorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *CoordinatorError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*CoordinatorError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *CoordinatorError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Key != "" {
		info += fmt.Sprintf("Key: %s\n", e.Key)
	}
	if e.ClientID != "" {
		info += fmt.Sprintf("Client ID: %s\n", e.ClientID)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}
