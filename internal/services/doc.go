// Package services defines shared utilities consumed by the session state
// machine and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp device paths, session IDs, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into retryable vs fatal outcomes for the retry supervisor.
//
// Use these helpers when wiring new session logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
