package shelly

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/avendel/shellyauth/internal/logging"
)

// deviceInfo is the subset of the /shelly self-description used here.
// Gen1 devices answer with a body that lacks the "gen" field entirely.
type deviceInfo struct {
	Gen         int    `json:"gen"`
	ID          string `json:"id"`
	Model       string `json:"model"`
	AuthEnabled *bool  `json:"auth_en"`
	AuthLegacy  *bool  `json:"auth"`
}

// DetectGeneration classifies the device behind this client as Gen1 or
// Gen2/3 with a single short probe of the self-description endpoint.
// It never fails: any timeout, non-200 status or malformed body degrades
// to Gen1, the conservative default. A wrongly assumed Gen1 costs one
// failed REST call; a wrongly assumed Gen2/3 would issue an RPC mutation
// against a device that cannot parse it.
func (c *Client) DetectGeneration(ctx context.Context) Generation {
	resp, err := c.get(ctx, "/shelly", nil, nil, c.ProbeTimeout)
	if err != nil {
		logging.Debug("generation probe failed, assuming Gen1",
			zap.String("host", c.Host),
			zap.Error(err),
		)
		return Gen1
	}
	if resp.StatusCode != http.StatusOK {
		logging.Debug("generation probe returned unexpected status, assuming Gen1",
			zap.String("host", c.Host),
			zap.Int("status", resp.StatusCode),
		)
		return Gen1
	}

	var info deviceInfo
	if err := c.decodeJSON(resp.Body, &info); err != nil {
		logging.Debug("generation probe returned malformed body, assuming Gen1",
			zap.String("host", c.Host),
			zap.Error(err),
		)
		return Gen1
	}

	if info.Gen >= 2 {
		return Gen2Plus
	}
	return Gen1
}
