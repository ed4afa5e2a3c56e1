package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// feedServer is an in-process Gen2/3 RPC endpoint. Frames written to send
// are pushed to the connected client.
type feedServer struct {
	server *httptest.Server
	send   chan rpcFrame

	// reply is returned as the Result of the initial Shelly.GetStatus
	// request; nil suppresses the reply.
	reply map[string]any
}

func newFeedServer(t *testing.T, reply map[string]any) *feedServer {
	t.Helper()

	fs := &feedServer{
		send:  make(chan rpcFrame, 8),
		reply: reply,
	}

	upgrader := websocket.Upgrader{}
	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rpc" {
			t.Errorf("feed path = %s, want /rpc", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		// Consume the status request the coordinator sends on connect.
		var request rpcFrame
		if err := conn.ReadJSON(&request); err != nil {
			return
		}
		if request.Method != "Shelly.GetStatus" {
			t.Errorf("initial request method = %q, want Shelly.GetStatus", request.Method)
		}
		if fs.reply != nil {
			response := rpcFrame{ID: request.ID, Dst: request.Src, Result: fs.reply}
			if err := conn.WriteJSON(response); err != nil {
				return
			}
		}

		for frame := range fs.send {
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}))
	t.Cleanup(func() {
		close(fs.send)
		fs.server.Close()
	})
	return fs
}

func (fs *feedServer) host() string {
	return strings.TrimPrefix(fs.server.URL, "http://")
}

// waitFor polls the coordinator until the key appears or the deadline passes
func waitFor(t *testing.T, c *Coordinator, key string) any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := c.Lookup(key); ok {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("key %q never appeared in the snapshot", key)
	return nil
}

func TestCoordinator_URL(t *testing.T) {
	c := NewCoordinator("192.168.1.30")
	if c.URL() != "ws://192.168.1.30/rpc" {
		t.Errorf("URL() = %q, want ws://192.168.1.30/rpc", c.URL())
	}
}

func TestCoordinator_InitialStatusReply(t *testing.T) {
	fs := newFeedServer(t, map[string]any{
		"sys": map[string]any{"auth_en": true},
	})

	c := NewCoordinator(fs.host())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	if v := waitFor(t, c, "auth_en"); v != true {
		t.Errorf("Lookup(auth_en) = %v, want true", v)
	}
	if v := waitFor(t, c, "sys.auth_en"); v != true {
		t.Errorf("Lookup(sys.auth_en) = %v, want true", v)
	}
}

func TestCoordinator_NotifyStatusMergesAndNotifies(t *testing.T) {
	fs := newFeedServer(t, nil)

	c := NewCoordinator(fs.host())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer c.Stop()

	updates := make(chan struct{}, 8)
	cancel := c.Subscribe(func() { updates <- struct{}{} })
	defer cancel()

	fs.send <- rpcFrame{
		Src:    "shellyplus1-a8032ab12c08",
		Dst:    clientSrc,
		Method: "NotifyStatus",
		Params: map[string]any{
			"sys": map[string]any{"auth_en": false},
		},
	}

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber was not notified of the pushed snapshot")
	}

	if v, ok := c.Lookup("auth_en"); !ok || v != false {
		t.Errorf("Lookup(auth_en) = (%v, %v), want (false, true)", v, ok)
	}
}

func TestCoordinator_SubscribeCancelStopsCallbacks(t *testing.T) {
	c := NewCoordinator("192.0.2.1")

	calls := 0
	cancel := c.Subscribe(func() { calls++ })

	c.merge(map[string]any{"auth_en": true})
	if calls != 1 {
		t.Fatalf("subscriber called %d times, want 1", calls)
	}

	cancel()
	c.merge(map[string]any{"auth_en": false})
	if calls != 1 {
		t.Errorf("cancelled subscriber called %d times, want 1", calls)
	}
}

func TestCoordinator_StartUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewCoordinator(strings.TrimPrefix(server.URL, "http://"))
	if err := c.Start(context.Background()); err == nil {
		t.Error("Start() on unreachable device = nil, want error")
	}
}

func TestCoordinator_StopIsIdempotent(t *testing.T) {
	fs := newFeedServer(t, nil)

	c := NewCoordinator(fs.host())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c.Stop()
	c.Stop()
}

func TestFlattenInto(t *testing.T) {
	raw := `{
		"sys": {"auth_en": true, "mac": "A8032AB12C08"},
		"switch:0": {"output": false, "apower": 0.0},
		"uptime": 1234
	}`
	var src map[string]any
	if err := json.Unmarshal([]byte(raw), &src); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	dst := make(map[string]any)
	flattenInto(dst, "", src)

	checks := map[string]any{
		"sys.auth_en":     true,
		"auth_en":         true,
		"sys.mac":         "A8032AB12C08",
		"switch:0.output": false,
		"output":          false,
		"uptime":          float64(1234),
	}
	for key, want := range checks {
		got, ok := dst[key]
		if !ok {
			t.Errorf("flattened snapshot missing key %q", key)
			continue
		}
		if got != want {
			t.Errorf("flattened[%q] = %v, want %v", key, got, want)
		}
	}

	// Top-level scalars must not shadow themselves under a dotted key.
	if _, ok := dst[".uptime"]; ok {
		t.Error("flattened snapshot contains malformed dotted key for top-level scalar")
	}
}
