// Shellyauth is an authentication management utility for Shelly IoT devices.
//
// It detects each device's protocol generation, reads the current
// authentication state, and enables or disables password protection across
// both the Gen1 REST API and the Gen2/3 JSON-RPC API. Devices can be
// discovered over mDNS or addressed directly by IP.
//
// Usage:
//
//	shellyauth [command] [flags]
//
// Running without arguments launches the interactive dashboard.
// See 'shellyauth --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avendel/shellyauth/internal/logging"
	"github.com/avendel/shellyauth/internal/version"
)

func main() {
	logging.InitializeFromEnv()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shellyauth",
	Short: "Shelly Device Authentication Utility",
	Long: `A standalone utility for managing authentication on Shelly IoT devices.

Detects device generation (Gen1 REST or Gen2/3 JSON-RPC), reads the current
authentication state, and enables or disables password protection using the
right protocol dialect for each device.

If no command is specified, the interactive dashboard will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run dashboard when no subcommand provided
		return runDashboard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shellyauth %s (commit: %s)\n", version.Version, version.Commit)
	},
}
