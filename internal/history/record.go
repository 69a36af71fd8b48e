package history

import "time"

// Terminal rip outcomes. In-progress sessions carry whatever state
// name the session machine published last; eject is tracked separately
// because it can follow either outcome.
const (
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// StateExtracting is the row written before a rip starts. A row still in
// it on daemon startup belonged to a crashed run; FailInterrupted repairs
// it.
const StateExtracting = "extracting"

// InterruptedReason is the error recorded when a daemon shutdown
// orphans an in-flight session.
const InterruptedReason = "interrupted by daemon shutdown"

// Record is one disc session's audit entry.
type Record struct {
	ID           int64      `json:"id"`
	SessionID    string     `json:"session_id"`
	Device       string     `json:"device"`
	DiscLabel    string     `json:"disc_label,omitempty"`
	Fingerprint  string     `json:"fingerprint,omitempty"`
	Title        string     `json:"title,omitempty"`
	Verdict      string     `json:"verdict,omitempty"`
	EpisodeCount int        `json:"episode_count,omitempty"`
	State        string     `json:"state"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Attempts     int        `json:"attempts,omitempty"`
	Ejected      bool       `json:"ejected,omitempty"`
	OutputFiles  []string   `json:"output_files,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// TerminalState reports whether state names a finished session.
func TerminalState(state string) bool {
	return state == StateCompleted || state == StateFailed
}
