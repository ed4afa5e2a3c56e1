// Package shelly manages HTTP authentication on Shelly IoT devices across
// both protocol generations.
//
// Shelly devices expose two incompatible local APIs: Gen1 devices speak a
// REST/query-string dialect (GET /settings, GET /settings/login) while
// Gen2/3 devices speak JSON-RPC (POST /rpc/Sys.GetConfig, /rpc/Sys.SetAuth).
// Both answer GET /shelly with a self-description whose "gen" field names
// the generation; Gen1 firmware omits the field.
//
// # Generation Detection
//
// DetectGeneration issues one short probe and classifies the device:
//
//	client := shelly.NewClient("192.168.1.30")
//	gen := client.DetectGeneration(ctx) // Gen1 or Gen2Plus, never an error
//
// Detection degrades to Gen1 on any failure. Assuming Gen2/3 for an
// unreachable device would pick the wrong wire format for the follow-up
// call with a higher blast radius.
//
// # Reading Auth State
//
// ResolveAuthState prefers a coordinator push feed and only polls the
// device when no feed is available or the snapshot lacks the auth keys:
//
//	state := shelly.ResolveAuthState(ctx, client, feed, readerCreds)
//
// HTTP 401 from any poll maps to AuthEnabled (the device gating access is
// proof that auth is on). Transport and parse failures map to AuthUnknown,
// which downstream code must never interpret as either enabled or disabled.
//
// # Changing Auth State
//
// SetAuth applies the change with the dialect for the detected generation
// and reports plain success or failure:
//
//	ok := client.SetAuth(ctx, shelly.Credentials{Username: "admin", Password: pw}, true)
//
// Enabling carries the credentials in the request body without request
// auth; disabling authenticates the request itself, since the device still
// requires auth until the change lands. An empty password is rejected
// before any network call.
//
// # Per-Device State
//
// AuthSwitch wires the pieces together for one device: initial read at
// attach time, feed-driven updates, and optimistic local state on
// successful writes.
//
// # Error Handling
//
// No operation in this package propagates an exception-style error to its
// caller. Transport call sites return *DeviceError values with a typed
// kind (timeout, connection refused, DNS, parse, HTTP) and the domain
// layer maps each kind to AuthUnknown or write failure, logging as it goes.
package shelly
