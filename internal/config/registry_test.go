package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	// Should not be empty
	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	// Should contain "shellyauth"
	if !strings.Contains(configDir, "shellyauth") {
		t.Errorf("GetConfigDir() = %v, should contain 'shellyauth'", configDir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin", "linux":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}

	t.Logf("Config directory: %s", configDir)
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	// Should end with config.yaml
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}

	t.Logf("Config path: %s", configPath)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}

	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}

	if reg.Preferences == nil {
		t.Error("NewRegistry().Preferences should not be nil")
	}

	if reg.Preferences.AutoDiscover != true {
		t.Error("NewRegistry().Preferences.AutoDiscover should be true by default")
	}

	if reg.Preferences.DiscoverTimeout != 10 {
		t.Errorf("NewRegistry().Preferences.DiscoverTimeout = %v, want 10", reg.Preferences.DiscoverTimeout)
	}

	if reg.Preferences.WriterUsername != "admin" {
		t.Errorf("NewRegistry().Preferences.WriterUsername = %v, want 'admin'", reg.Preferences.WriterUsername)
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	// First call should create device
	device1 := reg.EnsureDevice("shelly1-aabbcc")
	if device1 == nil {
		t.Fatal("EnsureDevice() returned nil")
	}

	// Second call should return same device
	device2 := reg.EnsureDevice("shelly1-aabbcc")
	if device1 != device2 {
		t.Error("EnsureDevice() should return same instance for same ID")
	}

	// Different ID should create new device
	device3 := reg.EnsureDevice("shellyplus1-ddeeff")
	if device1 == device3 {
		t.Error("EnsureDevice() should create new instance for different ID")
	}
}

func TestRegistryUpdateDeviceLastSeen(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	reg.UpdateDeviceLastSeen("shelly1-aabbcc", "192.168.1.100")
	after := time.Now()

	device := reg.GetDevice("shelly1-aabbcc")
	if device == nil {
		t.Fatal("Device should exist after UpdateDeviceLastSeen()")
	}

	if device.Host != "192.168.1.100" {
		t.Errorf("Host = %v, want 192.168.1.100", device.Host)
	}

	if device.LastSeen.Before(before) || device.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device.LastSeen, before, after)
	}
}

func TestRegistryFindDeviceByHost(t *testing.T) {
	reg := NewRegistry()
	reg.Devices["shelly1-aabbcc"] = &Device{Host: "192.168.1.100"}
	reg.Devices["shellyplus1-ddeeff"] = &Device{Host: "192.168.1.101"}

	id, device := reg.FindDeviceByHost("192.168.1.101")
	if id != "shellyplus1-ddeeff" {
		t.Errorf("FindDeviceByHost() id = %v, want shellyplus1-ddeeff", id)
	}
	if device == nil || device.Host != "192.168.1.101" {
		t.Errorf("FindDeviceByHost() device = %+v, want host 192.168.1.101", device)
	}

	id, device = reg.FindDeviceByHost("10.0.0.1")
	if id != "" || device != nil {
		t.Errorf("FindDeviceByHost() for unknown host = (%v, %+v), want empty", id, device)
	}
}

func TestRegistrySortedIDs(t *testing.T) {
	reg := NewRegistry()
	reg.EnsureDevice("b-device")
	reg.EnsureDevice("a-device")
	reg.EnsureDevice("c-device")

	ids := reg.SortedIDs()
	want := []string{"a-device", "b-device", "c-device"}
	if len(ids) != len(want) {
		t.Fatalf("SortedIDs() returned %d ids, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("SortedIDs()[%d] = %v, want %v", i, ids[i], want[i])
		}
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Setenv("LOCALAPPDATA", t.TempDir())
	} else {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())
	}

	reg := NewRegistry()
	reg.Devices["shelly1-aabbcc"] = &Device{
		Name:     "Hallway Relay",
		Host:     "192.168.1.100",
		Username: "reader",
		Password: "secret",
	}
	reg.Preferences.WriterUsername = "fleetadmin"

	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}

	device := loaded.GetDevice("shelly1-aabbcc")
	if device == nil {
		t.Fatal("loaded registry should contain the saved device")
	}
	if device.Host != "192.168.1.100" {
		t.Errorf("loaded Host = %v, want 192.168.1.100", device.Host)
	}
	if device.Username != "reader" || device.Password != "secret" {
		t.Errorf("loaded reader credentials = %v/%v, want reader/secret", device.Username, device.Password)
	}
	if loaded.Preferences.WriterUsername != "fleetadmin" {
		t.Errorf("loaded WriterUsername = %v, want fleetadmin", loaded.Preferences.WriterUsername)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Setenv("LOCALAPPDATA", t.TempDir())
	} else {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())
	}

	reg, err := LoadRegistry()
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}

	if reg.Version != 1 {
		t.Errorf("default registry Version = %v, want 1", reg.Version)
	}
	if len(reg.Devices) != 0 {
		t.Errorf("default registry should have no devices, got %d", len(reg.Devices))
	}
}
