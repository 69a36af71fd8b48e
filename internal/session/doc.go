// Package session drives a detected disc through its lifecycle.
//
// The Runner owns one session at a time per device: it scans the disc,
// classifies the title durations, extracts the selected titles under retry
// supervision, and hands the staged files to the organizer. Every state
// change publishes a status snapshot before the runner proceeds, so the
// status surfaces always reflect what the runner is actually doing.
//
// States advance along a fixed chain (Idle, Detected, Classifying,
// Extracting, Finalizing, Completed) with Failed reachable from the three
// working states and Ejected following either terminal outcome. A session's
// recorded history is therefore always a prefix of that chain plus at most
// the failure and eject suffixes; discs skipped as duplicates still walk the
// full chain so observers see the usual shape.
package session
