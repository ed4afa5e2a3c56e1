package discovery

import (
	"fmt"
	"strconv"
	"time"
)

// Device represents a discovered Shelly device on the network
type Device struct {
	// ID is the mDNS instance identifier (e.g., "shellyplus1-a8032ab12c08")
	ID string

	// Model is the model prefix of the identifier (e.g., "shellyplus1")
	Model string

	// MAC is the MAC suffix of the identifier (e.g., "a8032ab12c08")
	MAC string

	// Hostname is the mDNS hostname (e.g., "shellyplus1-a8032ab12c08.local")
	Hostname string

	// IP is the IPv4 address (e.g., "192.168.1.30")
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Gen is the generation advertised in mDNS TXT records. Gen2/3
	// devices advertise "gen=2" or "gen=3"; 0 means not advertised
	// (typical for Gen1), which callers resolve with an HTTP probe.
	Gen int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("Shelly device %s at %s:%d", d.ID, d.IP, d.Port)
}

// Host returns the address suitable for the device HTTP client
func (d *Device) Host() string {
	if d.Port != 0 && d.Port != DefaultPort {
		return d.IP + ":" + strconv.Itoa(d.Port)
	}
	return d.IP
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
