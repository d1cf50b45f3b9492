// Package logging provides structured logging utilities for kubechat components.
//
// It wraps the standard library slog package with project defaults: JSON
// output to stderr, module/version context on every record, LOG_LEVEL
// environment configuration, and source location tracking for debug logs.
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("kubechatd", version)
//
//	    slog.Info("processing request", "id", "req-123")
//	    slog.Error("operation failed", "error", err)
//	}
//
// Overriding the level explicitly:
//
//	logging.SetDefaultStructuredLoggerWithLevel("kubechat", version, "debug")
//
// The LOG_LEVEL environment variable controls verbosity when no explicit
// level is given; it defaults to INFO.
package logging
