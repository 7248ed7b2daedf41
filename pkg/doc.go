// Package pkg provides shared utilities for the usblink packages.
//
// This package contains common functionality used by the link sequencer,
// the packet codec, the framed transport and the harness tools:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for USB protocol, codec and transport errors
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentLink, "high speed active", "tick", 1234)
//
// # Errors
//
// Errors are sentinel values, wrapped with context by callers:
//
//	if errors.Is(err, pkg.ErrTimeout) {
//	    // no frame before the deadline, the connection is still usable
//	}
package pkg
