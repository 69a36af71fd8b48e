// Package history records every disc session in a local SQLite
// database: what was inserted, how it classified, and how the rip
// ended. The monitor consults it to skip discs that were already
// ripped, and the CLI reads it for the history listing.
package history
