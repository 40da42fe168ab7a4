// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and tags every daemon invocation with a unique
// run identifier.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log = logger.WithRunID(log)
//	log.Info("Tracker started")
//
//	// In a pipeline component:
//	l := logger.WithComponent(log, "tailer")
//	l.Warn("Log file rotated", zap.Uint64("inode", inode))
package logger
