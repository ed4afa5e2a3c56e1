// Package discovery provides mDNS-based device discovery for Shelly IoT devices.
//
// This package implements multicast DNS (mDNS) service discovery to
// automatically locate Shelly devices on the local network. Gen2/3 devices
// advertise a dedicated "_shelly._tcp" service carrying a "gen" TXT record;
// Gen1 devices only appear as generic "_http._tcp" services and are
// recognized by their "shelly<model>-<mac>" hostname pattern.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Broadcasts mDNS queries for both service types on the local network
//  2. Listens for service advertisements from Shelly devices
//  3. Filters responses by the Shelly instance/hostname pattern
//  4. Deduplicates devices advertising on both service types
//  5. Returns a list of discovered devices after the timeout period
//
// # Usage Example
//
//	// Discover devices with 10-second timeout
//	devices, err := discovery.ScanForDevices(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Print discovered devices
//	for _, device := range devices {
//	    fmt.Printf("Found: %s at %s (Gen %d)\n", device.ID, device.IP, device.Gen)
//	}
//
// # Device Information
//
// Each discovered device includes:
//   - ID: Stable identifier (e.g., "shellyplus1-a8032ab12c08")
//   - Model/MAC: Parsed from the identifier
//   - IP: IPv4 address (IPv6 fallback)
//   - Port: HTTP port (typically 80)
//   - Gen: Advertised generation (0 when not advertised; resolve via probe)
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can
// run simultaneously without interference.
package discovery
