package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/avendel/shellyauth/internal/config"
	"github.com/avendel/shellyauth/internal/discovery"
	"github.com/avendel/shellyauth/internal/shelly"
	"github.com/avendel/shellyauth/internal/tui"
	"github.com/avendel/shellyauth/internal/urls"
)

// Command flags
var (
	deviceHost   string
	authUsername string
	scanTimeout  int
	saveScan     bool
)

func init() {
	// Common flags for device commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceHost, "device", "", "Device address (IP or hostname, skips the registry)")
	rootCmd.PersistentFlags().StringVar(&authUsername, "user", "", "Username for auth changes (default from config, falls back to admin)")

	// Add subcommands directly to root
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(configCmd)
}

// scanCmd discovers devices on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Shelly devices on the network",
	Long: `Scan for Shelly devices using mDNS/DNS-SD discovery.

Gen2/3 devices advertise a dedicated "_shelly._tcp" service; Gen1 devices
are recognized by their hostname on the generic "_http._tcp" service. The
scan browses both and deduplicates the results.`,
	Example: `  # Scan for 10 seconds (default)
  shellyauth scan

  # Quick 3-second scan
  shellyauth scan --timeout 3

  # Scan and record the found devices in the registry
  shellyauth scan --save`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
	scanCmd.Flags().BoolVar(&saveScan, "save", false, "Record discovered devices in the registry")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for Shelly devices (timeout: %ds)...\n\n", scanTimeout)

	devices, err := discovery.ScanForDevices(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure devices are powered on and connected to this network")
		fmt.Println("  - Check that your network allows mDNS (UDP port 5353)")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --device flag to specify an address manually")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))

	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.ID)
		fmt.Printf("   Model: %s\n", device.Model)
		fmt.Printf("   IP:    %s:%d\n", device.IP, device.Port)
		if gen := device.GetMetadata("gen"); gen != "" {
			fmt.Printf("   Gen:   %s\n", gen)
		}
		fmt.Println()
	}

	if saveScan {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		for _, device := range devices {
			registry.UpdateDeviceLastSeen(device.ID, device.Host())
		}
		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
		fmt.Printf("Recorded %d device(s) in the registry.\n", len(devices))
	} else {
		fmt.Println("Use 'shellyauth status' to read auth state")
		fmt.Println("Use 'shellyauth scan --save' to record devices in the registry")
	}

	return nil
}

// statusCmd reads auth state and connectivity for devices
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device authentication state",
	Long: `Read the authentication state and connectivity of Shelly devices.

With --device, only that device is queried. Otherwise every device in the
registry is queried concurrently. For each device the command reports the
protocol generation, whether password protection is on, and how the device
reaches its controller (CoIoT peer for Gen1, outbound WebSocket for Gen2/3).

Protocol references:
  Gen1 CoIoT:    ` + urls.Gen1CoIoT + `
  Gen2/3 WS:     ` + urls.Gen2OutboundWebsocket,
	Example: `  # Status of all registered devices
  shellyauth status

  # Status of one device by address
  shellyauth status --device 192.168.1.30`,
	RunE: runStatus,
}

// statusRow is one device's resolved status for display
type statusRow struct {
	label        string
	generation   shelly.Generation
	state        shelly.AuthState
	connectivity string
}

func runStatus(cmd *cobra.Command, args []string) error {
	targets, err := resolveTargets()
	if err != nil {
		return err
	}

	rows := make([]statusRow, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, device shelly.Device, creds *shelly.Credentials) {
			defer wg.Done()
			ctx := context.Background()
			client := shelly.NewClient(device.Host)
			rows[i] = statusRow{
				label:        device.String(),
				generation:   client.DetectGeneration(ctx),
				state:        shelly.ResolveAuthState(ctx, client, nil, creds),
				connectivity: client.Connectivity(ctx, creds),
			}
		}(i, target.device, target.creds)
	}
	wg.Wait()

	for _, row := range rows {
		fmt.Printf("%s\n", row.label)
		fmt.Printf("  Generation:   %s\n", row.generation)
		fmt.Printf("  Auth:         %s\n", row.state)
		fmt.Printf("  Connectivity: %s\n", row.connectivity)
		fmt.Println()
	}

	return nil
}

// enableCmd turns device authentication on
var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable authentication on a device",
	Long: `Enable password protection on a Shelly device.

The password is prompted interactively and never stored. The username
defaults to the configured writer username (or "admin"); Gen1 devices also
accept a custom username, Gen2/3 devices always authenticate as admin.

See ` + urls.Gen2Authentication + ` for how
Gen2/3 devices handle credentials.`,
	Example: `  # Enable auth on a specific device
  shellyauth enable --device 192.168.1.30

  # Enable with a custom username (Gen1 only)
  shellyauth enable --device 192.168.1.30 --user myuser`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetAuth(true)
	},
}

// disableCmd turns device authentication off
var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable authentication on a device",
	Long: `Disable password protection on a Shelly device.

The current credentials are required: the device still gates access while
auth is on, so the disable request itself must authenticate.`,
	Example: `  # Disable auth on a specific device
  shellyauth disable --device 192.168.1.30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetAuth(false)
	},
}

func runSetAuth(enable bool) error {
	if deviceHost == "" {
		return fmt.Errorf("no device specified. Use --device <address>")
	}

	username := authUsername
	if username == "" {
		username = writerUsernameFromConfig()
	}

	password, err := promptPassword(fmt.Sprintf("Password for %s@%s: ", username, deviceHost))
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("a password is required to change auth")
	}

	action := "Disabling"
	if enable {
		action = "Enabling"
	}
	fmt.Printf("%s auth on %s...\n", action, deviceHost)

	client := shelly.NewClient(deviceHost)
	creds := shelly.Credentials{Username: username, Password: password}
	if !client.SetAuth(context.Background(), creds, enable) {
		return fmt.Errorf("auth change failed; device state unchanged")
	}

	fmt.Printf("✓ Auth %s on %s\n", onOffWord(enable), deviceHost)
	return nil
}

// dashboardCmd launches the interactive TUI dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive dashboard",
	Long: `Launch an interactive TUI dashboard for managing device authentication.

The dashboard lists the registered devices with their auth state and
connectivity, refreshes them on demand, toggles auth after prompting for
the writer password, and can scan the network for new devices.`,
	Example: `  # Launch the dashboard
  shellyauth dashboard
  # Or simply (dashboard is default):
  shellyauth`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var entries []tui.DeviceEntry
	if deviceHost != "" {
		entry := tui.DeviceEntry{Device: shelly.Device{ID: deviceHost, Host: deviceHost}}
		if id, record := registry.FindDeviceByHost(deviceHost); id != "" {
			entry.Device = shelly.Device{ID: id, Name: record.Name, Host: record.Host}
			if record.Username != "" && record.Password != "" {
				entry.Reader = &shelly.Credentials{Username: record.Username, Password: record.Password}
			}
		}
		entries = append(entries, entry)
	} else {
		for _, id := range registry.SortedIDs() {
			record := registry.Devices[id]
			entry := tui.DeviceEntry{
				Device: shelly.Device{ID: id, Name: record.Name, Host: record.Host},
			}
			if record.Username != "" && record.Password != "" {
				entry.Reader = &shelly.Credentials{Username: record.Username, Password: record.Password}
			}
			entries = append(entries, entry)
		}
	}

	username := authUsername
	if username == "" {
		username = registry.Preferences.WriterUsername
	}
	timeout := time.Duration(registry.Preferences.DiscoverTimeout) * time.Second

	if err := tui.Run(entries, username, timeout, registry.Preferences.AutoDiscover); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}

// deviceCmd manages the device registry
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage the device registry",
	Long: `Manage the registry of known Shelly devices.

The registry maps stable device IDs to network addresses and optional
per-device reader credentials. It lives in the platform config directory
and is created on first use.`,
}

func init() {
	deviceCmd.AddCommand(deviceListCmd)
	deviceCmd.AddCommand(deviceAddCmd)
	deviceCmd.AddCommand(deviceRemoveCmd)
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}

		if len(registry.Devices) == 0 {
			fmt.Println("No devices registered. Use 'shellyauth scan --save' or 'shellyauth device add'.")
			return nil
		}

		for _, id := range registry.SortedIDs() {
			entry := registry.Devices[id]
			fmt.Printf("%s\n", id)
			if entry.Name != "" {
				fmt.Printf("  Name: %s\n", entry.Name)
			}
			fmt.Printf("  Host: %s\n", entry.Host)
			if entry.Username != "" {
				fmt.Printf("  Reader user: %s\n", entry.Username)
			}
			if !entry.LastSeen.IsZero() {
				fmt.Printf("  Last seen: %s\n", entry.LastSeen.Format(time.RFC3339))
			}
			fmt.Println()
		}
		return nil
	},
}

var (
	addName     string
	addUsername string
	addPassword string
)

var deviceAddCmd = &cobra.Command{
	Use:   "add <id> [host]",
	Short: "Add or update a registered device",
	Long: `Add a device to the registry, or update an existing entry.

When the host is omitted, the device is resolved over mDNS by its
identifier using the configured discovery timeout.`,
	Example: `  # Register a device by ID and address
  shellyauth device add shellyplus1-a8032ab12c08 192.168.1.30

  # Register by ID alone, resolving the address over mDNS
  shellyauth device add shellyplus1-a8032ab12c08

  # Register with a display name and reader credentials
  shellyauth device add shelly1-aabbcc 192.168.1.40 --name "Hall Switch" --reader-user admin --reader-pass secret`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}

		host := ""
		if len(args) == 2 {
			host = args[1]
		} else {
			timeout := time.Duration(registry.Preferences.DiscoverTimeout) * time.Second
			fmt.Printf("Resolving %s over mDNS (timeout: %s)...\n", args[0], timeout)
			found, err := discovery.FindDevice(args[0], timeout)
			if err != nil {
				return fmt.Errorf("could not resolve %s: %w (pass the host explicitly)", args[0], err)
			}
			host = found.Host()
		}

		entry := registry.EnsureDevice(args[0])
		entry.Host = host
		if addName != "" {
			entry.Name = addName
		}
		if addUsername != "" {
			entry.Username = addUsername
		}
		if addPassword != "" {
			entry.Password = addPassword
		}

		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
		fmt.Printf("✓ Registered %s at %s\n", args[0], host)
		return nil
	},
}

func init() {
	deviceAddCmd.Flags().StringVar(&addName, "name", "", "Display name for the device")
	deviceAddCmd.Flags().StringVar(&addUsername, "reader-user", "", "Per-device reader username for polling")
	deviceAddCmd.Flags().StringVar(&addPassword, "reader-pass", "", "Per-device reader password for polling")
}

var deviceRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a registered device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}

		if registry.GetDevice(args[0]) == nil {
			return fmt.Errorf("no device registered with ID %q", args[0])
		}
		delete(registry.Devices, args[0])

		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
		fmt.Printf("✓ Removed %s\n", args[0])
		return nil
	},
}

// configCmd shows or changes tool preferences
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change tool preferences",
	Long: `Show or change the stored tool preferences.

Preferences cover the writer username used for auth changes, the discovery
timeout, and whether the dashboard scans automatically on startup. The
writer password is never stored.`,
	Example: `  # Show current preferences
  shellyauth config

  # Change the writer username
  shellyauth config --writer-user myadmin

  # Change the discovery timeout
  shellyauth config --discover-timeout 20`,
	RunE: runConfig,
}

var (
	cfgWriterUser      string
	cfgDiscoverTimeout int
	cfgAutoDiscover    string
)

func init() {
	configCmd.Flags().StringVar(&cfgWriterUser, "writer-user", "", "Username for applying auth changes")
	configCmd.Flags().IntVar(&cfgDiscoverTimeout, "discover-timeout", 0, "mDNS discovery timeout in seconds")
	configCmd.Flags().StringVar(&cfgAutoDiscover, "auto-discover", "", "Scan on dashboard startup (true/false)")
}

func runConfig(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	changed := false
	if cfgWriterUser != "" {
		registry.Preferences.WriterUsername = cfgWriterUser
		changed = true
	}
	if cfgDiscoverTimeout > 0 {
		registry.Preferences.DiscoverTimeout = cfgDiscoverTimeout
		changed = true
	}
	if cfgAutoDiscover != "" {
		auto, err := strconv.ParseBool(cfgAutoDiscover)
		if err != nil {
			return fmt.Errorf("invalid --auto-discover value (use true/false): %w", err)
		}
		registry.Preferences.AutoDiscover = auto
		changed = true
	}

	if changed {
		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save registry: %w", err)
		}
		fmt.Println("✓ Preferences updated")
		fmt.Println()
	}

	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Printf("Config file:       %s\n", path)
	fmt.Printf("Writer username:   %s\n", registry.Preferences.WriterUsername)
	fmt.Printf("Discover timeout:  %ds\n", registry.Preferences.DiscoverTimeout)
	fmt.Printf("Auto-discover:     %v\n", registry.Preferences.AutoDiscover)
	return nil
}

// target is a device plus its optional reader credentials
type target struct {
	device shelly.Device
	creds  *shelly.Credentials
}

// resolveTargets selects the devices a command operates on: the --device
// flag when given, the full registry otherwise.
func resolveTargets() ([]target, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	if deviceHost != "" {
		t := target{device: shelly.Device{ID: deviceHost, Host: deviceHost}}
		// A registered device adopts its record's name and reader creds.
		if id, entry := registry.FindDeviceByHost(deviceHost); id != "" {
			t.device = shelly.Device{ID: id, Name: entry.Name, Host: entry.Host}
			if entry.Username != "" && entry.Password != "" {
				t.creds = &shelly.Credentials{Username: entry.Username, Password: entry.Password}
			}
		}
		return []target{t}, nil
	}
	if len(registry.Devices) == 0 {
		return nil, fmt.Errorf("no devices registered. Use --device <address> or 'shellyauth scan --save'")
	}

	ids := registry.SortedIDs()

	targets := make([]target, 0, len(ids))
	for _, id := range ids {
		entry := registry.Devices[id]
		t := target{device: shelly.Device{ID: id, Name: entry.Name, Host: entry.Host}}
		if entry.Username != "" && entry.Password != "" {
			t.creds = &shelly.Credentials{Username: entry.Username, Password: entry.Password}
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// writerUsernameFromConfig reads the configured writer username, falling
// back to the firmware default
func writerUsernameFromConfig() string {
	registry, err := config.LoadRegistry()
	if err != nil || registry.Preferences == nil || registry.Preferences.WriterUsername == "" {
		return shelly.DefaultUsername
	}
	return registry.Preferences.WriterUsername
}

// promptPassword reads a password from the terminal without echo
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

func onOffWord(enable bool) string {
	if enable {
		return "enabled"
	}
	return "disabled"
}
