package stt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a transcription failure.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindRateLimit  Kind = "rate_limit"
	KindNetwork    Kind = "network"
	KindBadRequest Kind = "bad_request"
	KindProvider   Kind = "provider"
)

// ErrNoBackend is returned by a Registry with no primary backend.
var ErrNoBackend = errors.New("stt: no transcription backend configured")

// Error is returned by every Transcriber in this package.
type Error struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s transcription failed (%s, http %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s transcription failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var sttErr *Error
	if errors.As(err, &sttErr) {
		return sttErr.Kind
	}
	return ""
}

// IsRetryable reports whether err is transient: network failures, rate
// limiting and provider-side 5xx responses.
func IsRetryable(err error) bool {
	var sttErr *Error
	if !errors.As(err, &sttErr) {
		return false
	}
	switch sttErr.Kind {
	case KindNetwork, KindRateLimit:
		return true
	case KindProvider:
		return sttErr.StatusCode >= 500
	}
	return false
}

// kindForStatus maps an HTTP status code to a Kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 400 && status < 500:
		return KindBadRequest
	default:
		return KindProvider
	}
}

// isNetworkError reports transport-level failures that never reached the API.
func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
