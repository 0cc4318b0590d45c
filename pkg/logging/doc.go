// Package logging provides structured logging configuration for gqlwire.
//
// This package wraps log/slog to provide consistent logging across the client
// components. It supports configurable log levels and output formats.
//
// # Usage
//
// Create a logger with desired configuration:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	})
//
//	logger.Debug("graphql request complete", "endpoint", url, "status", 200)
//
// # Integration
//
// Components accept a *slog.Logger via their options. When no logger is
// provided they use logging.Nop(), so logging never becomes a required
// dependency of the call path.
package logging
