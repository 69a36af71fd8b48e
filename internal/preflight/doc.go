// Package preflight provides readiness checks for the external binaries,
// filesystem paths, and services ripwatch depends on.
//
// The checks run in two contexts:
//   - ripwatchd runs RunAll at startup and logs a warning per failed check.
//     The daemon still starts; a missing drive or binary may appear later.
//   - The CLI "ripwatch doctor" command renders the same results as a table.
//
// Checks gated by config (ntfy reachability) are skipped when the feature is
// not configured.
package preflight
