// Package status holds the shared, concurrently readable record of
// what the ripper is doing now and what it finished last. Session
// owners publish immutable snapshots; the IPC and HTTP surfaces read
// them without coordination.
package status
