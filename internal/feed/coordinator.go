package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/avendel/shellyauth/internal/logging"
)

const (
	// DefaultDialTimeout bounds the WebSocket handshake with the device
	DefaultDialTimeout = 5 * time.Second

	// clientSrc identifies this client in outgoing RPC frames
	clientSrc = "shellyauth"
)

// rpcFrame is a Gen2/3 WebSocket RPC frame. Unsolicited notifications
// carry Method and Params; responses to our requests carry Result.
type rpcFrame struct {
	ID     int            `json:"id,omitempty"`
	Src    string         `json:"src,omitempty"`
	Dst    string         `json:"dst,omitempty"`
	Method string         `json:"method,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Result map[string]any `json:"result,omitempty"`
}

// Coordinator maintains a WebSocket connection to a Gen2/3 device's /rpc
// endpoint and caches the most recent status data as a flat key/value
// snapshot. It implements shelly.StatusFeed, so an attached AuthSwitch
// reads pushed state instead of polling the device.
//
// Only Gen2/3 devices speak this protocol; Gen1 devices have no feed and
// are always polled.
type Coordinator struct {
	host   string
	dialer *websocket.Dialer

	mu      sync.RWMutex
	data    map[string]any
	subs    map[int]func()
	nextSub int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCoordinator creates a coordinator for the device at host. Call Start
// to connect.
func NewCoordinator(host string) *Coordinator {
	return &Coordinator{
		host: host,
		dialer: &websocket.Dialer{
			HandshakeTimeout: DefaultDialTimeout,
		},
		data: make(map[string]any),
		subs: make(map[int]func()),
	}
}

// URL returns the device's WebSocket RPC endpoint
func (c *Coordinator) URL() string {
	return fmt.Sprintf("ws://%s/rpc", c.host)
}

// Start dials the device and begins consuming notifications in a
// background goroutine. It requests a full status snapshot immediately
// after connecting so Lookup has data before the first notification.
func (c *Coordinator) Start(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.URL(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.URL(), err)
	}

	// Ask for the current status up front; the reply merges into the
	// snapshot like any notification.
	request := rpcFrame{ID: 1, Src: clientSrc, Method: "Shelly.GetStatus"}
	if err := conn.WriteJSON(request); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to request device status: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.readLoop(runCtx, conn)

	logging.Debug("feed connected", zap.String("host", c.host))
	return nil
}

// Stop closes the connection and waits for the read loop to exit
func (c *Coordinator) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	c.cancel = nil
}

// readLoop consumes frames until the connection drops or Stop is called
func (c *Coordinator) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer close(c.done)
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		// Unblocks the pending ReadMessage below.
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logging.Warn("feed disconnected",
					zap.String("host", c.host),
					zap.Error(err),
				)
			}
			return
		}

		var frame rpcFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			logging.Debug("feed frame ignored",
				zap.String("host", c.host),
				zap.Error(err),
			)
			continue
		}

		switch {
		case frame.Method == "NotifyStatus" || frame.Method == "NotifyFullStatus":
			c.merge(frame.Params)
		case frame.Result != nil:
			c.merge(frame.Result)
		}
	}
}

// merge folds new status data into the snapshot and notifies subscribers.
// Nested objects are flattened to dotted keys; scalar leaves are also
// exposed under their bare name so consumers can look up well-known flags
// like "auth_en" without knowing the component path.
func (c *Coordinator) merge(data map[string]any) {
	if len(data) == 0 {
		return
	}

	c.mu.Lock()
	flattenInto(c.data, "", data)
	callbacks := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		callbacks = append(callbacks, fn)
	}
	c.mu.Unlock()

	// Callbacks run outside the lock; they may call Lookup.
	for _, fn := range callbacks {
		fn()
	}
}

// flattenInto writes nested status data into dst under dotted keys
func flattenInto(dst map[string]any, prefix string, src map[string]any) {
	for key, value := range src {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenInto(dst, full, nested)
			continue
		}
		dst[full] = value
		if prefix != "" {
			dst[key] = value
		}
	}
}

// Lookup returns the last-known value for a key. It implements
// shelly.StatusFeed.
func (c *Coordinator) Lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Subscribe registers a callback invoked after every snapshot update and
// returns a cancel function. It implements shelly.StatusFeed.
func (c *Coordinator) Subscribe(fn func()) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
