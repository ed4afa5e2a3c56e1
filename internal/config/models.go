package config

import (
	"sort"
	"time"
)

// Registry represents the entire user configuration file.
// It mirrors the host platform's configuration entries: one device record
// per managed Shelly device plus installation-wide preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by stable device ID
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents one managed Shelly device. Username and password are
// the per-device READER credentials used only for polling; the writer
// credential used to apply auth changes lives in Preferences and is never
// stored with a password.
type Device struct {
	Name     string    `yaml:"name,omitempty"`      // User-friendly name
	Host     string    `yaml:"host"`                // Network address (IP or hostname)
	Username string    `yaml:"username,omitempty"`  // Reader credentials (optional)
	Password string    `yaml:"password,omitempty"`  // Reader credentials (optional)
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`    // Enable mDNS discovery on dashboard startup
	DiscoverTimeout int    `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
	WriterUsername  string `yaml:"writer_username"`  // Username for applying auth changes
	// The writer password is NEVER stored; it is prompted when needed.
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
			WriterUsername:  "admin",
		},
	}
}

// GetDevice retrieves a device record by ID.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(id string) *Device {
	return r.Devices[id]
}

// FindDeviceByHost retrieves the ID and record of the device with the
// given host. Returns an empty ID when no device matches.
func (r *Registry) FindDeviceByHost(host string) (string, *Device) {
	for id, device := range r.Devices {
		if device.Host == host {
			return id, device
		}
	}
	return "", nil
}

// EnsureDevice ensures a device entry exists in the registry.
// If the device doesn't exist, creates a new entry with default values.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(id string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[id]; exists {
		return device
	}

	device := &Device{}
	r.Devices[id] = device
	return device
}

// UpdateDeviceLastSeen updates the last seen timestamp and host for a device.
func (r *Registry) UpdateDeviceLastSeen(id, host string) {
	device := r.EnsureDevice(id)
	device.LastSeen = time.Now()
	device.Host = host
}

// SortedIDs returns the device IDs in stable, sorted order for display.
func (r *Registry) SortedIDs() []string {
	ids := make([]string, 0, len(r.Devices))
	for id := range r.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
