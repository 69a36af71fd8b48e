// Package retry runs fallible operations under a bounded attempt
// budget with a fixed delay between tries. It distinguishes transient
// failures, which are retried, from fatal ones, which stop the run at
// once, and keeps a per-attempt audit trail.
package retry
