// Package config provides user configuration management for shellyauth.
//
// This package manages a YAML-based configuration file that stores the
// managed Shelly devices (host plus optional per-device reader credentials)
// and application preferences. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/shellyauth/config.yaml or $HOME/.config/shellyauth/config.yaml
//   - macOS: $HOME/.config/shellyauth/config.yaml
//   - Windows: %LOCALAPPDATA%\shellyauth\config.yaml
//
// # Security
//
// IMPORTANT: the writer password used to change device authentication is
// NEVER stored in this file. It is always prompted from the user when
// needed. Per-device reader credentials may be stored, mirroring the host
// platform's configuration entries for each device.
//
// # Usage Example
//
//	// Load the registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Add or update a device record
//	registry.Devices["shellyplus1-a8032ab12c08"] = &config.Device{
//	    Name: "Hallway Relay",
//	    Host: "192.168.1.30",
//	}
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// Save operations are serialized with an internal mutex and written
// atomically (temp file plus rename) to survive crashes mid-write.
package config
