package shelly

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Error kinds for device communication. Every transport call site returns
// a *DeviceError so callers can map the kind to a domain outcome
// (AuthUnknown for reads, failure for writes) instead of inspecting raw
// errors.

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a generic network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the request exceeded its deadline
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates an unexpected HTTP status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed or unexpected response body
	ErrTypeParse
	// ErrTypeValidation indicates a precondition failure (no network call made)
	ErrTypeValidation
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred while talking to a device
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Host       string    // Device host (for context)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and assigns a specific kind
func ClassifyNetworkError(err error, host string) *DeviceError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &DeviceError{
			Type:    ErrTypeTimeout,
			Message: "request timed out",
			Host:    host,
			Err:     err,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Host:    host,
			Err:     err,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &DeviceError{
				Type:    ErrTypeConnectionRefused,
				Message: "device refused connection",
				Host:    host,
				Err:     err,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) || errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &DeviceError{
				Type:    ErrTypeNetwork,
				Message: "host unreachable",
				Host:    host,
				Err:     err,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Recursively classify the underlying error
		classified := ClassifyNetworkError(urlErr.Err, host)
		if classified != nil {
			return classified
		}
	}

	return &DeviceError{
		Type:    ErrTypeNetwork,
		Message: "network error occurred",
		Host:    host,
		Err:     err,
	}
}

// NewHTTPError creates an error for an unexpected HTTP status code
func NewHTTPError(statusCode int, host, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Host:       host,
	}
}

// NewParseError creates an error for a malformed response body
func NewParseError(host, message string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeParse,
		Message: message,
		Host:    host,
		Err:     err,
	}
}

// NewValidationError creates a precondition error (no network call was made)
func NewValidationError(host, message string) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeValidation,
		Message: message,
		Host:    host,
	}
}

// IsNetworkError checks if an error is a network error (including timeout,
// connection refused and DNS failures)
func IsNetworkError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeNetwork ||
			devErr.Type == ErrTypeTimeout ||
			devErr.Type == ErrTypeConnectionRefused ||
			devErr.Type == ErrTypeDNS
	}
	return false
}

// IsTimeoutError checks if an error is a timeout
func IsTimeoutError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeTimeout
	}
	return false
}

// IsHTTPError checks if an error is an unexpected-status error
func IsHTTPError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a malformed-response error
func IsParseError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeParse
	}
	return false
}

// IsValidationError checks if an error is a precondition failure
func IsValidationError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeValidation
	}
	return false
}

// HTTPStatus returns the status code carried by an HTTP error, if any
func HTTPStatus(err error) (int, bool) {
	var devErr *DeviceError
	if errors.As(err, &devErr) && devErr.Type == ErrTypeHTTP {
		return devErr.StatusCode, true
	}
	return 0, false
}
