package shelly

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/avendel/shellyauth/internal/logging"
)

// Connectivity descriptor values for states that cannot be read from the
// device directly.
const (
	// ConnMulticast is reported for Gen1 devices with no CoIoT peer set
	ConnMulticast = "multicast"

	// ConnAuthRequired is reported when the device gates the config read
	ConnAuthRequired = "unknown (auth required)"

	// ConnNotConfigured is reported for Gen2/3 devices without an
	// outbound WebSocket server
	ConnNotConfigured = "not configured (discovery-based)"

	// ConnAutoDiscovery is reported when the Gen2/3 config read fails
	ConnAutoDiscovery = "auto-discovery (fallback)"

	// ConnUnknown is reported when the Gen1 settings read fails
	ConnUnknown = "unknown"
)

// sysConfig is the subset of the Gen2/3 Sys.GetConfig response used here
type sysConfig struct {
	WS struct {
		Server string `json:"server"`
	} `json:"ws"`
}

// Connectivity describes how the device reaches its controller: the CoIoT
// peer for Gen1 devices, the outbound WebSocket server for Gen2/3. The
// result is display-only and recomputed per call; failures degrade to a
// descriptive placeholder and never propagate.
func (c *Client) Connectivity(ctx context.Context, creds *Credentials) string {
	gen := c.DetectGeneration(ctx)
	if gen == Gen2Plus {
		return c.gen2Connectivity(ctx, creds)
	}
	return c.gen1Connectivity(ctx, creds)
}

// gen1Connectivity reads the CoIoT peer from the Gen1 settings endpoint
func (c *Client) gen1Connectivity(ctx context.Context, creds *Credentials) string {
	resp, err := c.get(ctx, "/settings", nil, creds, c.ReadTimeout)
	if err != nil {
		logging.Debug("connectivity read failed",
			zap.String("host", c.Host),
			zap.Error(err),
		)
		return ConnUnknown
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ConnAuthRequired
	case http.StatusOK:
		var settings gen1Settings
		if err := c.decodeJSON(resp.Body, &settings); err != nil {
			logging.Debug("connectivity read returned malformed body",
				zap.String("host", c.Host),
				zap.Error(err),
			)
			return ConnUnknown
		}
		if settings.CoIoT.Peer == "" {
			return ConnMulticast
		}
		return "unicast " + settings.CoIoT.Peer
	default:
		return ConnUnknown
	}
}

// gen2Connectivity reads the outbound WebSocket server from Sys.GetConfig
func (c *Client) gen2Connectivity(ctx context.Context, creds *Credentials) string {
	resp, err := c.postJSON(ctx, "/rpc/Sys.GetConfig", map[string]any{}, creds, c.ReadTimeout)
	if err != nil {
		logging.Debug("connectivity read failed",
			zap.String("host", c.Host),
			zap.Error(err),
		)
		return ConnAutoDiscovery
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ConnAuthRequired
	case http.StatusOK:
		var config sysConfig
		if err := c.decodeJSON(resp.Body, &config); err != nil {
			logging.Debug("connectivity read returned malformed body",
				zap.String("host", c.Host),
				zap.Error(err),
			)
			return ConnAutoDiscovery
		}
		if config.WS.Server == "" {
			return ConnNotConfigured
		}
		return config.WS.Server
	default:
		return ConnAutoDiscovery
	}
}
