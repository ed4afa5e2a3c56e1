// Package tui implements the interactive dashboard built on Bubble Tea.
//
// The dashboard lists the known Shelly devices with their authentication
// state and connectivity descriptor, refreshes them on demand and toggles
// authentication after prompting for the writer password. Devices can be
// added by running an mDNS scan directly from the dashboard.
//
// # Architecture
//
// The package follows the Elm architecture used by Bubble Tea: a single
// Model holds the device rows and input mode, Update routes messages, and
// View renders the list inside the shared application container from
// styles.go. All device I/O runs in background commands so the UI never
// blocks on a slow device; results come back as messages carrying the row
// index they belong to.
//
// # Input Modes
//
//   - list: navigating the device rows
//   - scanning: an mDNS scan is in flight
//   - prompt: collecting the writer password for an auth toggle
//   - working: an auth change is being applied
//
// Passwords are read with a masked text input and handed straight to the
// device client; they are never persisted.
package tui
