package shelly

import "fmt"

// Generation classifies the protocol dialect a device speaks.
// Gen1 devices expose the REST/query-string API, Gen2Plus devices
// (generation 2 and 3) expose the JSON-RPC API.
type Generation int

const (
	Gen1 Generation = iota
	Gen2Plus
)

// String returns a human-readable name for the generation class
func (g Generation) String() string {
	switch g {
	case Gen1:
		return "Gen1"
	case Gen2Plus:
		return "Gen2/3"
	default:
		return fmt.Sprintf("Generation(%d)", int(g))
	}
}

// AuthState is the tri-state authentication status of a device.
// AuthUnknown is the initial value and the value after any unrecoverable
// read failure; it must never be treated as enabled or disabled.
type AuthState int

const (
	AuthUnknown AuthState = iota
	AuthDisabled
	AuthEnabled
)

// String returns a human-readable name for the auth state
func (s AuthState) String() string {
	switch s {
	case AuthEnabled:
		return "enabled"
	case AuthDisabled:
		return "disabled"
	case AuthUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("AuthState(%d)", int(s))
	}
}

// authStateOf converts a protocol-level auth flag to an AuthState
func authStateOf(enabled bool) AuthState {
	if enabled {
		return AuthEnabled
	}
	return AuthDisabled
}

// Credentials is a username/password pair for HTTP basic auth.
// Reader credentials are scoped to one device and used only for polling;
// writer credentials are configured once and used to apply changes.
type Credentials struct {
	Username string
	Password string
}

// complete reports whether both fields are set. Requests only carry
// basic auth when the credentials are complete.
func (c *Credentials) complete() bool {
	return c != nil && c.Username != "" && c.Password != ""
}

// Device identifies one managed Shelly device.
type Device struct {
	// ID is the stable platform identifier (mDNS instance name or
	// user-assigned key in the registry)
	ID string

	// Name is the user-facing display name
	Name string

	// Host is the network address (IP or hostname, no scheme)
	Host string
}

// String returns a human-readable string representation of the device
func (d Device) String() string {
	if d.Name != "" && d.Name != d.Host {
		return fmt.Sprintf("%s (%s)", d.Name, d.Host)
	}
	return d.Host
}
