package shelly

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/avendel/shellyauth/internal/logging"
)

// AuthSwitch tracks and controls the authentication state of one device.
// It holds the last-known tri-state AuthState: populated by Attach (initial
// read plus a feed subscription when a feed exists), refreshed on every
// feed update, and updated optimistically on a successful write. A failed
// write leaves the previous value in place rather than resetting to
// unknown. The state is advisory, not a source of truth; when a write
// races a feed update, the last update wins.
type AuthSwitch struct {
	Device Device

	client      *Client
	feed        StatusFeed
	readerCreds *Credentials

	mu          sync.Mutex
	state       AuthState
	unsubscribe func()
}

// NewAuthSwitch creates a switch for the device. feed may be nil when no
// push feed exists for the device; readerCreds may be nil when the device
// entry carries no credentials.
func NewAuthSwitch(device Device, feed StatusFeed, readerCreds *Credentials) *AuthSwitch {
	return &AuthSwitch{
		Device:      device,
		client:      NewClient(device.Host),
		feed:        feed,
		readerCreds: readerCreds,
		state:       AuthUnknown,
	}
}

// Client returns the underlying device client
func (s *AuthSwitch) Client() *Client {
	return s.client
}

// Attach performs the initial state read and, when a feed is available,
// subscribes to its updates so the state follows pushed snapshots
func (s *AuthSwitch) Attach(ctx context.Context) AuthState {
	state := s.Refresh(ctx)
	if s.feed != nil && s.unsubscribe == nil {
		s.unsubscribe = s.feed.Subscribe(s.handleFeedUpdate)
		logging.Debug("subscribed to push feed",
			zap.String("host", s.Device.Host),
		)
	}
	return state
}

// AttachFeed adopts a push feed after construction, typically once a
// coordinator connection to the device succeeds. It subscribes to the
// feed and adopts its auth flag immediately when present. A second feed
// is ignored.
func (s *AuthSwitch) AttachFeed(feed StatusFeed) {
	if feed == nil || s.feed != nil {
		return
	}
	s.feed = feed
	s.unsubscribe = feed.Subscribe(s.handleFeedUpdate)
	if state, ok := feedAuthState(feed); ok {
		s.setState(state)
	}
	logging.Debug("subscribed to push feed",
		zap.String("host", s.Device.Host),
	)
}

// Detach cancels the feed subscription, if any
func (s *AuthSwitch) Detach() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Refresh re-resolves the auth state (feed first, poll fallback) and
// stores the result
func (s *AuthSwitch) Refresh(ctx context.Context) AuthState {
	state := ResolveAuthState(ctx, s.client, s.feed, s.readerCreds)
	s.setState(state)
	return state
}

// handleFeedUpdate adopts the auth flag from a pushed snapshot. Snapshots
// without an auth flag leave the current state untouched.
func (s *AuthSwitch) handleFeedUpdate() {
	state, ok := feedAuthState(s.feed)
	if !ok {
		return
	}
	s.setState(state)
	logging.Debug("auth state from feed update",
		zap.String("host", s.Device.Host),
		zap.String("state", state.String()),
	)
}

// State returns the last-known auth state
func (s *AuthSwitch) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetAuth applies the desired state with writer credentials. On success the
// local state is updated optimistically (not re-verified); on failure it is
// left unchanged.
func (s *AuthSwitch) SetAuth(ctx context.Context, writerCreds Credentials, enable bool) bool {
	if !s.client.SetAuth(ctx, writerCreds, enable) {
		return false
	}
	s.setState(authStateOf(enable))
	return true
}

// Enable turns authentication on with the given writer credentials
func (s *AuthSwitch) Enable(ctx context.Context, writerCreds Credentials) bool {
	return s.SetAuth(ctx, writerCreds, true)
}

// Disable turns authentication off, authenticating with the given writer
// credentials
func (s *AuthSwitch) Disable(ctx context.Context, writerCreds Credentials) bool {
	return s.SetAuth(ctx, writerCreds, false)
}

func (s *AuthSwitch) setState(state AuthState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
