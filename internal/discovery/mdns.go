package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceTypeShelly is the mDNS service type advertised by Gen2/3
	// Shelly devices
	ServiceTypeShelly = "_shelly._tcp"

	// ServiceTypeHTTP is the generic HTTP service type; Gen1 devices
	// only advertise here, named by their hostname pattern
	ServiceTypeHTTP = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default HTTP port for Shelly devices
	DefaultPort = 80
)

// instancePattern matches Shelly identifiers, either the mDNS instance
// name or the hostname (e.g., "shellyplus1-a8032ab12c08" or
// "shelly1-aabbcc.local.")
var instancePattern = regexp.MustCompile(`(?i)^(shelly[0-9a-z]*)-([0-9a-f]{6,12})(?:\.local\.?)?$`)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForDevices discovers all Shelly devices on the local network
// Returns a list of discovered devices or an error
func (s *Scanner) ScanForDevices() ([]*Device, error) {
	return s.ScanForDevicesWithContext(context.Background())
}

// ScanForDevicesWithContext discovers devices with a custom context.
// Both service types are browsed concurrently and results are
// deduplicated by device identifier (Gen2/3 devices advertise on both).
func (s *Scanner) ScanForDevicesWithContext(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		devices = make(map[string]*Device)
		wg      sync.WaitGroup
	)

	for _, serviceType := range []string{ServiceTypeShelly, ServiceTypeHTTP} {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
		}

		entries := make(chan *zeroconf.ServiceEntry)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range entries {
				device := s.parseServiceEntry(entry)
				if device == nil {
					continue
				}
				mu.Lock()
				if existing, ok := devices[device.ID]; !ok || (existing.Gen == 0 && device.Gen != 0) {
					devices[device.ID] = device
				}
				mu.Unlock()
			}
		}()

		if err := resolver.Browse(ctx, serviceType, ServiceDomain, entries); err != nil {
			return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
		}
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()
	wg.Wait()

	result := make([]*Device, 0, len(devices))
	for _, device := range devices {
		result = append(result, device)
	}
	return result, nil
}

// WaitForDevice waits for a specific device by identifier
// Returns the device or an error if not found within timeout
func (s *Scanner) WaitForDevice(id string) (*Device, error) {
	return s.WaitForDeviceWithContext(context.Background(), id)
}

// WaitForDeviceWithContext waits for a specific device with a custom context
func (s *Scanner) WaitForDeviceWithContext(ctx context.Context, id string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	deviceChan := make(chan *Device, 1)

	for _, serviceType := range []string{ServiceTypeShelly, ServiceTypeHTTP} {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
		}

		entries := make(chan *zeroconf.ServiceEntry)

		go func() {
			for entry := range entries {
				device := s.parseServiceEntry(entry)
				if device != nil && strings.EqualFold(device.ID, id) {
					select {
					case deviceChan <- device:
						cancel() // Found the device, cancel context
					default:
					}
					return
				}
			}
		}()

		if err := resolver.Browse(ctx, serviceType, ServiceDomain, entries); err != nil {
			return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
		}
	}

	// Wait for device or timeout
	select {
	case device := <-deviceChan:
		return device, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("device %s not found within timeout", id)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Device
// Returns nil if the entry is not a Shelly device
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	// The instance name carries the identifier for _shelly._tcp entries;
	// Gen1 devices on _http._tcp match on the hostname instead.
	matches := instancePattern.FindStringSubmatch(entry.Instance)
	if matches == nil {
		matches = instancePattern.FindStringSubmatch(entry.HostName)
	}
	if matches == nil {
		return nil
	}

	model := strings.ToLower(matches[1])
	mac := strings.ToLower(matches[2])
	id := model + "-" + mac

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	// Get port (default to 80 if not specified)
	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	gen := 0
	if g, err := strconv.Atoi(metadata["gen"]); err == nil {
		gen = g
	}

	hostname := entry.HostName
	if hostname == "" {
		hostname = id + ".local"
	}

	return &Device{
		ID:           id,
		Model:        model,
		MAC:          mac,
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Gen:          gen,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForDevices is a convenience function to scan for devices with a custom timeout
func ScanForDevices(timeout time.Duration) ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForDevices()
}

// FindDevice searches for a specific device by identifier with a custom
// timeout
func FindDevice(id string, timeout time.Duration) (*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.WaitForDevice(id)
}
