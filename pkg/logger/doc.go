// Package logger provides the structured logging interface used across the
// feed scraper.
//
// It wraps zerolog with a small API that supports:
// - Leveled output (Debug, Info, Warn, Error)
// - Structured fields attached per call or per child logger
// - Colored console output on stderr plus an optional log file
// - A per-run identifier so interleaved runs can be told apart
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	log := logger.WithRunID(logger.GetLogger())
//	log.InfoWithFields("Fetched feed page", map[string]interface{}{
//	    "page":   1,
//	    "url":    "https://m.facebook.com/page/posts/",
//	    "status": 200,
//	})
//
// Tests use NewTestLogger to capture messages and assert on them.
package logger
