// Package logs reads the daemon's log files for the CLI and the IPC
// LogTail endpoint.
//
// Tail is offset-based so `ripwatch logs --follow` can resume across RPC
// round trips without the server holding per-client state, and Newest picks
// the file to read when no daemon is around to ask.
package logs
