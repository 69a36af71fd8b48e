package ipc

import (
	"ripwatch/internal/daemon"
	"ripwatch/internal/history"
)

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse reports whether shutdown ran.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest asks for the daemon's current state.
type StatusRequest struct{}

// StatusResponse is the daemon's own status report; it is already
// JSON-shaped, so it rides the socket as-is.
type StatusResponse = daemon.Status

// HistoryRequest asks for recent rip sessions.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryResponse carries rip records, newest first.
type HistoryResponse struct {
	Records []*history.Record `json:"records"`
}

// HistoryClearRequest deletes all rip history.
type HistoryClearRequest struct{}

// HistoryClearResponse reports how many records were deleted.
type HistoryClearResponse struct {
	Removed int64 `json:"removed"`
}

// HistoryStatsRequest asks for rip counts grouped by final state.
type HistoryStatsRequest struct{}

// HistoryStatsResponse maps session state to record count.
type HistoryStatsResponse struct {
	Stats map[string]int `json:"stats"`
}

// EjectRequest asks the daemon to cancel any active session on the device
// and open its tray. An empty device means the primary drive.
type EjectRequest struct {
	Device string `json:"device"`
}

// EjectResponse carries a human-readable confirmation.
type EjectResponse struct {
	Message string `json:"message"`
}

// TestNotificationRequest sends a test message through the notifier.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the outcome of the test send.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// LogTailRequest reads lines from the daemon's log file. Offset -1 seeds
// from the end; subsequent calls pass the returned offset to resume.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
