package shelly

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/avendel/shellyauth/internal/logging"
)

// Feed keys carrying the authentication flag in push snapshots.
// Gen2/3 firmware reports "auth_en"; older data uses the legacy "auth" key.
const (
	feedKeyAuthEnabled = "auth_en"
	feedKeyAuthLegacy  = "auth"
)

// StatusFeed is a push-based snapshot of last-known device data, typically
// maintained by a coordinator that subscribes to device notifications.
// A nil StatusFeed means no feed is available for the device; that is not
// an error, it just forces the reader onto the polling path.
type StatusFeed interface {
	// Lookup returns the last-known value for a key, and whether the
	// snapshot carries that key at all
	Lookup(key string) (any, bool)

	// Subscribe registers a callback invoked on every snapshot update.
	// The returned function cancels the subscription.
	Subscribe(fn func()) (cancel func())
}

// feedAuthState extracts the auth flag from a push snapshot. The explicit
// "auth_en" key wins over the legacy "auth" key when both are present.
// A present-but-false flag is adopted; only absence falls through.
func feedAuthState(feed StatusFeed) (AuthState, bool) {
	for _, key := range []string{feedKeyAuthEnabled, feedKeyAuthLegacy} {
		v, ok := feed.Lookup(key)
		if !ok {
			continue
		}
		if b, ok := asBool(v); ok {
			return authStateOf(b), true
		}
	}
	return AuthUnknown, false
}

// asBool coerces a snapshot value into a bool. JSON decoding yields bools
// from Gen2/3 notifications and float64 from numeric Gen1 flags.
func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	default:
		return false, false
	}
}

// ResolveAuthState resolves the device's current authentication state,
// preferring the push feed and falling back to a direct poll. It never
// returns an error: unrecoverable failures are logged and reported as
// AuthUnknown.
func ResolveAuthState(ctx context.Context, c *Client, feed StatusFeed, readerCreds *Credentials) AuthState {
	if feed != nil {
		if state, ok := feedAuthState(feed); ok {
			logging.Debug("auth state from push feed",
				zap.String("host", c.Host),
				zap.String("state", state.String()),
			)
			return state
		}
	}

	gen := c.DetectGeneration(ctx)
	state, err := c.pollAuthState(ctx, gen, readerCreds)
	if err != nil {
		fields := []zap.Field{
			zap.String("host", c.Host),
			zap.String("generation", gen.String()),
		}
		switch {
		case IsTimeoutError(err):
			logging.Debug("auth state poll timed out", fields...)
		case IsParseError(err):
			logging.Debug("auth state poll returned malformed body", append(fields, zap.Error(err))...)
		default:
			logging.Debug("auth state poll failed", append(fields, zap.Error(err))...)
		}
		return AuthUnknown
	}
	return state
}

// pollAuthState reads the auth flag from the generation-specific status
// endpoint. HTTP 401 anywhere maps to AuthEnabled: the device gating
// access is itself proof that auth is on.
func (c *Client) pollAuthState(ctx context.Context, gen Generation, creds *Credentials) (AuthState, error) {
	if gen == Gen2Plus {
		state, fallThrough, err := c.pollAuthStateRPC(ctx, creds)
		if err != nil {
			return AuthUnknown, err
		}
		if !fallThrough {
			return state, nil
		}
		// The probe answered as Gen1 after all; poll the settings endpoint.
	}
	return c.pollAuthStateREST(ctx, creds)
}

// pollAuthStateRPC reads the auth flag from the Gen2/3 self-description.
// fallThrough is true when the response identifies the device as Gen1.
func (c *Client) pollAuthStateRPC(ctx context.Context, creds *Credentials) (state AuthState, fallThrough bool, err error) {
	resp, err := c.get(ctx, "/shelly", nil, creds, c.ReadTimeout)
	if err != nil {
		return AuthUnknown, false, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return AuthEnabled, false, nil
	case http.StatusOK:
		var info deviceInfo
		if err := c.decodeJSON(resp.Body, &info); err != nil {
			return AuthUnknown, false, err
		}
		if info.Gen < 2 {
			return AuthUnknown, true, nil
		}
		if info.AuthEnabled != nil {
			return authStateOf(*info.AuthEnabled), false, nil
		}
		if info.AuthLegacy != nil {
			return authStateOf(*info.AuthLegacy), false, nil
		}
		// Response carries neither flag; the state stays unresolved.
		return AuthUnknown, false, nil
	default:
		return AuthUnknown, false, NewHTTPError(resp.StatusCode, c.Host, "unexpected status from self-description")
	}
}

// gen1Settings is the subset of the Gen1 /settings response used here
type gen1Settings struct {
	Auth  bool `json:"auth"`
	CoIoT struct {
		Peer string `json:"peer"`
	} `json:"coiot"`
}

// pollAuthStateREST reads the auth flag from the Gen1 settings endpoint
func (c *Client) pollAuthStateREST(ctx context.Context, creds *Credentials) (AuthState, error) {
	resp, err := c.get(ctx, "/settings", nil, creds, c.ReadTimeout)
	if err != nil {
		return AuthUnknown, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return AuthEnabled, nil
	case http.StatusOK:
		var settings gen1Settings
		if err := c.decodeJSON(resp.Body, &settings); err != nil {
			return AuthUnknown, err
		}
		return authStateOf(settings.Auth), nil
	default:
		return AuthUnknown, NewHTTPError(resp.StatusCode, c.Host, "unexpected status from settings")
	}
}
