package shelly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/avendel/shellyauth/internal/logging"
)

const (
	// DefaultUsername is the username Shelly firmware expects when none
	// is configured explicitly (Gen1 only accepts "admin" for Gen2-style
	// calls; Gen2/3 ignores the username on digest-less basic auth)
	DefaultUsername = "admin"

	// DefaultProbeTimeout bounds the /shelly self-description probe
	DefaultProbeTimeout = 3 * time.Second

	// DefaultReadTimeout bounds generation-specific status reads
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout bounds auth mutation calls
	DefaultWriteTimeout = 10 * time.Second
)

// Client is a minimal HTTP client for one Shelly device. Each call is a
// single attempt bounded by an explicit timeout; there is no retry,
// caching or connection management beyond the standard transport.
type Client struct {
	// Host is the device network address, without scheme (e.g. "192.168.1.30")
	Host string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// ProbeTimeout bounds the generation probe (default 3s)
	ProbeTimeout time.Duration

	// ReadTimeout bounds protocol status reads (default 5s)
	ReadTimeout time.Duration

	// WriteTimeout bounds auth mutations (default 10s)
	WriteTimeout time.Duration
}

// NewClient creates a client for the device at host
func NewClient(host string) *Client {
	return &Client{
		Host:         host,
		HTTPClient:   &http.Client{},
		ProbeTimeout: DefaultProbeTimeout,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
}

// response is the outcome of a completed HTTP exchange. The status code is
// reported here rather than as an error because HTTP 401 is a first-class
// signal (auth currently enabled), not a failure.
type response struct {
	StatusCode int
	Body       []byte
}

// get issues a single GET request. Basic auth is attached only when creds
// are complete (both username and password set).
func (c *Client) get(ctx context.Context, path string, params url.Values, creds *Credentials, timeout time.Duration) (*response, error) {
	target := c.url(path)
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &DeviceError{Type: ErrTypeNetwork, Message: "failed to create GET request", Host: c.Host, Err: err}
	}
	if creds.complete() {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	return c.do(req)
}

// postJSON issues a single POST request with a JSON body. Basic auth is
// attached only when creds are complete.
func (c *Client) postJSON(ctx context.Context, path string, body any, creds *Credentials, timeout time.Duration) (*response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, NewParseError(c.Host, "failed to encode request body", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(payload))
	if err != nil {
		return nil, &DeviceError{Type: ErrTypeNetwork, Message: "failed to create POST request", Host: c.Host, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if creds.complete() {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	return c.do(req)
}

// do executes the request and drains the body. Transport failures are
// classified into error kinds; any HTTP status is a successful exchange.
func (c *Client) do(req *http.Request) (*response, error) {
	logging.Debug("device request",
		zap.String("host", c.Host),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, c.Host)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ClassifyNetworkError(err, c.Host)
	}

	return &response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("http://%s%s", c.Host, path)
}

// decodeJSON parses a response body into v, reporting a parse-kind error
// on malformed payloads
func (c *Client) decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return NewParseError(c.Host, "failed to parse JSON response", err)
	}
	return nil
}
