package shelly

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/avendel/shellyauth/internal/logging"
)

// SetAuth applies the desired authentication state to the device using the
// protocol dialect for its generation. It returns true only when the device
// acknowledged the change with HTTP 200; every failure is logged here and
// reported as false, never as an error.
//
// Enabling ships the credentials in the request body (the device accepts
// this unauthenticated, as it has no auth yet). Disabling requires the
// request itself to authenticate with the same credentials, since the
// device is still gating access at that point.
func (c *Client) SetAuth(ctx context.Context, creds Credentials, enable bool) bool {
	action := "disable"
	if enable {
		action = "enable"
	}

	err := c.applyAuth(ctx, creds, enable)
	if err != nil {
		fields := []zap.Field{
			zap.String("host", c.Host),
			zap.String("action", action),
		}
		switch {
		case IsValidationError(err):
			logging.Error("refusing auth change", append(fields, zap.Error(err))...)
		case IsTimeoutError(err):
			logging.Error("auth change timed out", fields...)
		case IsNetworkError(err):
			logging.Error("device unreachable for auth change", append(fields, zap.Error(err))...)
		case IsHTTPError(err):
			status, _ := HTTPStatus(err)
			logging.Error("auth change rejected by device", append(fields, zap.Int("status", status))...)
		default:
			logging.Error("auth change failed", append(fields, zap.Error(err))...)
		}
		return false
	}

	logging.Info("auth changed",
		zap.String("host", c.Host),
		zap.Bool("enabled", enable),
	)
	return true
}

// applyAuth validates the credentials, routes the mutation by generation and
// folds a non-200 acknowledgement into the error taxonomy. The password
// check runs before any network traffic.
func (c *Client) applyAuth(ctx context.Context, creds Credentials, enable bool) error {
	if creds.Password == "" {
		return NewValidationError(c.Host, "a password is required to change auth")
	}
	if creds.Username == "" {
		creds.Username = DefaultUsername
	}

	// Best-effort probe; an unreachable or slow device is treated as Gen1.
	gen := c.DetectGeneration(ctx)
	logging.Debug("routing auth change",
		zap.String("host", c.Host),
		zap.String("generation", gen.String()),
	)

	var (
		resp *response
		err  error
	)
	if gen == Gen2Plus {
		resp, err = c.setAuthRPC(ctx, creds, enable)
	} else {
		resp, err = c.setAuthREST(ctx, creds, enable)
	}
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, c.Host, "auth change rejected")
	}
	return nil
}

// setAuthRPC issues the Gen2/3 Sys.SetAuth mutation
func (c *Client) setAuthRPC(ctx context.Context, creds Credentials, enable bool) (*response, error) {
	if enable {
		body := map[string]any{
			"user": creds.Username,
			"pass": creds.Password,
		}
		return c.postJSON(ctx, "/rpc/Sys.SetAuth", body, nil, c.WriteTimeout)
	}

	// A null user clears auth; the call itself must authenticate.
	body := map[string]any{"user": nil}
	return c.postJSON(ctx, "/rpc/Sys.SetAuth", body, &creds, c.WriteTimeout)
}

// setAuthREST issues the Gen1 settings/login mutation
func (c *Client) setAuthREST(ctx context.Context, creds Credentials, enable bool) (*response, error) {
	if enable {
		params := url.Values{
			"enabled":  {"1"},
			"username": {creds.Username},
			"password": {creds.Password},
		}
		return c.get(ctx, "/settings/login", params, nil, c.WriteTimeout)
	}

	params := url.Values{"enabled": {"0"}}
	return c.get(ctx, "/settings/login", params, &creds, c.WriteTimeout)
}
