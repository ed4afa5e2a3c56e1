package shelly

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

// timeoutError mimics a net error with Timeout() true
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
	}{
		{
			name:     "timeout",
			err:      timeoutError{},
			wantType: ErrTypeTimeout,
		},
		{
			name:     "dns failure",
			err:      &net.DNSError{Err: "no such host", Name: "shelly1-aabbcc.local"},
			wantType: ErrTypeDNS,
		},
		{
			name:     "connection refused",
			err:      &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			wantType: ErrTypeConnectionRefused,
		},
		{
			name:     "host unreachable",
			err:      &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH},
			wantType: ErrTypeNetwork,
		},
		{
			name:     "network unreachable",
			err:      &net.OpError{Op: "dial", Err: syscall.ENETUNREACH},
			wantType: ErrTypeNetwork,
		},
		{
			name:     "wrapped in url.Error",
			err:      &url.Error{Op: "Get", URL: "http://192.168.1.30/shelly", Err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}},
			wantType: ErrTypeConnectionRefused,
		},
		{
			name:     "generic error",
			err:      fmt.Errorf("something odd happened"),
			wantType: ErrTypeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devErr := ClassifyNetworkError(tt.err, "192.168.1.30")
			if devErr == nil {
				t.Fatal("ClassifyNetworkError() = nil, want error")
			}
			if devErr.Type != tt.wantType {
				t.Errorf("classified type = %v, want %v", devErr.Type, tt.wantType)
			}
			if devErr.Host != "192.168.1.30" {
				t.Errorf("classified host = %q, want device host", devErr.Host)
			}
			if !errors.Is(devErr, tt.err) && devErr.Err == nil {
				t.Error("classified error lost the underlying cause")
			}
		})
	}
}

func TestClassifyNetworkError_Nil(t *testing.T) {
	if got := ClassifyNetworkError(nil, "host"); got != nil {
		t.Errorf("ClassifyNetworkError(nil) = %v, want nil", got)
	}
}

func TestDeviceError_Error(t *testing.T) {
	withCause := &DeviceError{
		Type:    ErrTypeTimeout,
		Message: "request timed out",
		Err:     fmt.Errorf("context deadline exceeded"),
	}
	if msg := withCause.Error(); !strings.Contains(msg, "Timeout") || !strings.Contains(msg, "context deadline exceeded") {
		t.Errorf("Error() = %q, want type and cause", msg)
	}

	withoutCause := &DeviceError{Type: ErrTypeHTTP, Message: "unexpected status"}
	if msg := withoutCause.Error(); !strings.Contains(msg, "HTTP Error") {
		t.Errorf("Error() = %q, want type prefix", msg)
	}
}

func TestDeviceError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	devErr := &DeviceError{Type: ErrTypeNetwork, Message: "wrapped", Err: cause}

	if !errors.Is(devErr, cause) {
		t.Error("errors.Is() did not reach the underlying cause")
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{"timeout is network", &DeviceError{Type: ErrTypeTimeout}, IsNetworkError, true},
		{"refused is network", &DeviceError{Type: ErrTypeConnectionRefused}, IsNetworkError, true},
		{"dns is network", &DeviceError{Type: ErrTypeDNS}, IsNetworkError, true},
		{"http is not network", &DeviceError{Type: ErrTypeHTTP}, IsNetworkError, false},
		{"timeout predicate", &DeviceError{Type: ErrTypeTimeout}, IsTimeoutError, true},
		{"http predicate", NewHTTPError(500, "host", "unexpected status"), IsHTTPError, true},
		{"parse predicate", NewParseError("host", "bad json", nil), IsParseError, true},
		{"validation predicate", NewValidationError("host", "missing password"), IsValidationError, true},
		{"plain error matches nothing", fmt.Errorf("plain"), IsNetworkError, false},
		{"wrapped device error", fmt.Errorf("wrapped: %w", &DeviceError{Type: ErrTypeTimeout}), IsTimeoutError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	status, ok := HTTPStatus(NewHTTPError(503, "host", "unexpected status"))
	if !ok || status != 503 {
		t.Errorf("HTTPStatus() = (%d, %v), want (503, true)", status, ok)
	}

	if _, ok := HTTPStatus(&DeviceError{Type: ErrTypeNetwork}); ok {
		t.Error("HTTPStatus() on network error = true, want false")
	}

	if _, ok := HTTPStatus(nil); ok {
		t.Error("HTTPStatus(nil) = true, want false")
	}
}
