// Package logging assembles structured slog loggers and formatting helpers
// used across ripwatch components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so session code can
// automatically tag log lines with device paths and session IDs. The package
// also provides a no-op logger for tests and wiring code that cannot fail,
// plus a progress sampler that keeps extraction progress from flooding the
// log.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
