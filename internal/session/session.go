package session

import (
	"time"

	"github.com/google/uuid"

	"ripwatch/internal/classify"
	"ripwatch/internal/history"
	"ripwatch/internal/retry"
	"ripwatch/internal/status"
)

// Session is one disc-to-output transaction. It is owned by the Runner for
// its lifetime; observers only ever see status.Snapshot copies.
type Session struct {
	ID          string
	Device      string
	Label       string
	Fingerprint string
	Title       string

	State        State
	Verdict      classify.Verdict
	Attempt      int
	Attempts     []retry.Attempt
	Duplicate    bool
	Directory    string
	Files        []string
	SkippedFiles []string
	ErrorDetail  string

	Percent float64
	Stage   string
	Message string

	StartedAt  time.Time
	FinishedAt time.Time

	history []State
	rec     *history.Record
}

func newSession(device string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Device:    device,
		State:     StateIdle,
		StartedAt: now,
		history:   []State{StateIdle},
	}
}

// History returns the ordered states this session has passed through.
func (s *Session) History() []State {
	return append([]State(nil), s.history...)
}

// Failed reports whether the session ended in failure (including a failure
// followed by ejection).
func (s *Session) Failed() bool {
	for _, st := range s.history {
		if st == StateFailed {
			return true
		}
	}
	return false
}

// AttemptCount returns how many extraction attempts ran.
func (s *Session) AttemptCount() int {
	return len(s.Attempts)
}

// snapshot converts the session to its published form.
func (s *Session) snapshot() status.Snapshot {
	snap := status.Snapshot{
		SessionID:    s.ID,
		Device:       s.Device,
		DiscLabel:    s.Label,
		Title:        s.Title,
		State:        string(s.State),
		Percent:      s.Percent,
		Stage:        s.Stage,
		Message:      s.Message,
		Attempt:      s.Attempt,
		Files:        s.Files,
		ErrorDetail:  s.ErrorDetail,
		Terminal:     s.State.Terminal(),
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		EpisodeCount: s.Verdict.EpisodeCount,
	}
	if s.Verdict.Type != "" {
		snap.Verdict = string(s.Verdict.Type)
	}
	return snap
}
