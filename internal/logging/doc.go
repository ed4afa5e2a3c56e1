// Package logging provides structured logging for shellyauth.
//
// This package wraps zap logger with convenience functions for the logging
// patterns used throughout the tool. Logging is silent by default so CLI
// output stays clean; set SHELLYAUTH_LOG_LEVEL to enable it.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (per-request traces, feed updates)
//   - Info: Normal operations (auth changes applied, devices discovered)
//   - Warn: Non-fatal issues (feed disconnects, stale snapshots)
//   - Error: Failures (rejected auth changes, precondition violations)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("auth changed",
//	    zap.String("host", "192.168.1.30"),
//	    zap.Bool("enabled", true),
//	)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
