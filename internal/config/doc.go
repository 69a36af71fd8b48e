// Package config loads, normalizes, and validates ripwatch configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// RIPWATCH_DEVICE. The Config type centralizes every knob the daemon and CLI
// need, so library/staging directories, device lists, and detection
// thresholds are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical policies, and clear validation errors.
package config
