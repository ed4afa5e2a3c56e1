// Package feed maintains push-based status snapshots for Gen2/3 Shelly
// devices.
//
// Gen2/3 firmware exposes its JSON-RPC API over WebSocket at ws://host/rpc
// and pushes NotifyStatus / NotifyFullStatus frames whenever device state
// changes. The Coordinator consumes those frames into a flat key/value
// snapshot of last-known data and notifies subscribers on every update.
//
// The snapshot satisfies the shelly.StatusFeed interface, which is what
// lets the auth state reader answer from pushed data without touching the
// network. Devices without a running coordinator simply pass a nil feed
// and fall back to polling.
//
// # Usage Example
//
//	coord := feed.NewCoordinator("192.168.1.30")
//	if err := coord.Start(ctx); err != nil {
//	    // Device not reachable over WebSocket; proceed without a feed.
//	}
//	defer coord.Stop()
//
//	sw := shelly.NewAuthSwitch(device, coord, nil)
//	sw.Attach(ctx)
//
// # Thread Safety
//
// Lookup and Subscribe are safe for concurrent use; the snapshot is
// guarded by a read/write mutex and subscriber callbacks are invoked
// outside the lock.
package feed
