package discovery

import (
	"testing"
	"time"
)

func TestDevice_String(t *testing.T) {
	device := &Device{
		ID:       "shellyplus1-a8032ab12c08",
		Hostname: "shellyplus1-a8032ab12c08.local",
		IP:       "192.168.1.30",
		Port:     80,
	}

	expected := "Shelly device shellyplus1-a8032ab12c08 at 192.168.1.30:80"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_Host(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{
			name: "standard HTTP port omitted",
			device: &Device{
				IP:   "192.168.1.30",
				Port: 80,
			},
			expected: "192.168.1.30",
		},
		{
			name: "custom port included",
			device: &Device{
				IP:   "10.0.0.5",
				Port: 8080,
			},
			expected: "10.0.0.5:8080",
		},
		{
			name: "zero port omitted",
			device: &Device{
				IP: "10.0.0.5",
			},
			expected: "10.0.0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.Host(); got != tt.expected {
				t.Errorf("Device.Host() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDevice_GetMetadata(t *testing.T) {
	device := &Device{
		Metadata: map[string]string{
			"gen": "2",
			"app": "Plus1",
		},
	}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "existing key",
			key:      "gen",
			expected: "2",
		},
		{
			name:     "another existing key",
			key:      "app",
			expected: "Plus1",
		},
		{
			name:     "non-existent key",
			key:      "missing",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := device.GetMetadata(tt.key); got != tt.expected {
				t.Errorf("Device.GetMetadata(%v) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestDevice_GetMetadata_NilMap(t *testing.T) {
	device := &Device{
		Metadata: nil,
	}

	if got := device.GetMetadata("anything"); got != "" {
		t.Errorf("Device.GetMetadata() with nil map = %v, want empty string", got)
	}
}

func TestDevice_DiscoveredAt(t *testing.T) {
	now := time.Now()
	device := &Device{
		ID:           "shelly1-aabbcc",
		DiscoveredAt: now,
	}

	if device.DiscoveredAt != now {
		t.Errorf("Device.DiscoveredAt = %v, want %v", device.DiscoveredAt, now)
	}
}
