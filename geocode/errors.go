// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// GeocodingError represents a provider failure, classified by Type.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error

	// RetryAfter is the wait the provider asked for, if any.
	RetryAfter time.Duration
}

// ErrorType classifies geocoding errors.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit rate limit reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded or access denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection or response timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound the address had no match.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest the provider rejected the request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError network failure or unavailable gateway.
	ErrorTypeNetworkError
	// ErrorTypeServer provider internal error.
	ErrorTypeServer
)

var errorTypeNames = [...]string{
	ErrorTypeUnknown:        "unknown",
	ErrorTypeRateLimit:      "rate_limit",
	ErrorTypeQuotaExceeded:  "quota_exceeded",
	ErrorTypeTimeout:        "timeout",
	ErrorTypeNotFound:       "not_found",
	ErrorTypeInvalidRequest: "invalid_request",
	ErrorTypeNetworkError:   "network",
	ErrorTypeServer:         "server",
}

func (t ErrorType) String() string {
	if t >= 0 && int(t) < len(errorTypeNames) {
		return errorTypeNames[t]
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

// ErrEmptyQuery is reported for blank addresses, which are never sent.
var ErrEmptyQuery = errors.New("empty address")

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

func errorType(err error) (ErrorType, bool) {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type, true
	}

	return ErrorTypeUnknown, false
}

// IsRateLimitError reports whether err is a rate limit rejection.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	if t, ok := errorType(err); ok {
		return t == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err is a quota or access rejection.
func IsQuotaExceededError(err error) bool {
	if err == nil {
		return false
	}

	if t, ok := errorType(err); ok {
		return t == ErrorTypeQuotaExceeded
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_daily_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if t, ok := errorType(err); ok {
		return t == ErrorTypeTimeout
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsNotFoundError reports whether the provider found no match.
func IsNotFoundError(err error) bool {
	t, ok := errorType(err)

	return ok && t == ErrorTypeNotFound
}

// IsTransient reports whether retrying the same request may succeed.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	if t, ok := errorType(err); ok {
		switch t {
		case ErrorTypeRateLimit, ErrorTypeTimeout, ErrorTypeNetworkError, ErrorTypeServer:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return IsRateLimitError(err) || IsTimeoutError(err)
}

// ClassifyHTTPError maps a non-200 HTTP status to a geocoding error.
func ClassifyHTTPError(statusCode int, body string) *GeocodingError {
	geoErr := &GeocodingError{Message: fmt.Sprintf("HTTP error %d", statusCode)}

	switch {
	case statusCode == http.StatusTooManyRequests: // 429
		geoErr.Type = ErrorTypeRateLimit
		geoErr.Message = "rate limit reached"
	case statusCode == http.StatusForbidden, statusCode == http.StatusUnauthorized: // 403, 401
		geoErr.Type = ErrorTypeQuotaExceeded
		geoErr.Message = "quota exceeded or access denied"
	case statusCode == http.StatusBadRequest: // 400
		geoErr.Type = ErrorTypeInvalidRequest
		geoErr.Message = "invalid request"
	case statusCode == http.StatusNotFound: // 404
		geoErr.Type = ErrorTypeNotFound
		geoErr.Message = "location not found"
	case statusCode == http.StatusServiceUnavailable,
		statusCode == http.StatusBadGateway,
		statusCode == http.StatusGatewayTimeout:
		geoErr.Type = ErrorTypeNetworkError
		geoErr.Message = fmt.Sprintf("service unavailable (status %d)", statusCode)
	case statusCode >= 500:
		geoErr.Type = ErrorTypeServer
		geoErr.Message = fmt.Sprintf("server error (status %d)", statusCode)
	}

	if body = strings.TrimSpace(body); body != "" {
		geoErr.Err = errors.New(body)
	}

	return geoErr
}

// classifyTransportError wraps errors returned by http.Client.Do.
func classifyTransportError(err error) *GeocodingError {
	var netErr net.Error

	switch {
	case errors.Is(err, context.Canceled):
		return &GeocodingError{Type: ErrorTypeUnknown, Message: "request cancelled", Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &GeocodingError{Type: ErrorTypeTimeout, Message: "request timed out", Err: err}
	default:
		return &GeocodingError{Type: ErrorTypeNetworkError, Message: "request failed", Err: err}
	}
}
