package status

import (
	"sort"
	"sync"
	"time"
)

// Snapshot is the externally visible state of one disc session at a
// point in time. Snapshots are values: once published they are never
// mutated, only replaced.
type Snapshot struct {
	SessionID    string    `json:"session_id"`
	Device       string    `json:"device"`
	DiscLabel    string    `json:"disc_label,omitempty"`
	Title        string    `json:"title,omitempty"`
	State        string    `json:"state"`
	Verdict      string    `json:"verdict,omitempty"`
	EpisodeCount int       `json:"episode_count,omitempty"`
	Percent      float64   `json:"percent"`
	Stage        string    `json:"stage,omitempty"`
	Message      string    `json:"message,omitempty"`
	Attempt      int       `json:"attempt,omitempty"`
	Files        []string  `json:"files,omitempty"`
	ErrorDetail  string    `json:"error_detail,omitempty"`
	Terminal     bool      `json:"terminal"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	if len(s.Files) > 0 {
		out.Files = append([]string(nil), s.Files...)
	}
	return out
}

// Sink is the process-wide record of current and last-completed
// sessions, safe for concurrent publishers and readers. One device has
// at most one current session; publishing a terminal snapshot moves it
// from current to last completed in a single swap, so readers never
// observe a session in both slots or in neither mid-transition.
type Sink struct {
	mu            sync.RWMutex
	current       map[string]Snapshot
	lastCompleted map[string]Snapshot
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{
		current:       make(map[string]Snapshot),
		lastCompleted: make(map[string]Snapshot),
	}
}

// Publish records the snapshot under its device. Non-terminal
// snapshots replace the device's current entry; terminal snapshots
// clear it and become the device's last-completed entry.
func (s *Sink) Publish(snap Snapshot) {
	stored := snap.clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if stored.Terminal {
		if stored.FinishedAt.IsZero() {
			stored.FinishedAt = stored.UpdatedAt
		}
		delete(s.current, stored.Device)
		s.lastCompleted[stored.Device] = stored
		return
	}
	s.current[stored.Device] = stored
}

// Read returns the most recently updated current session and the most
// recently finished completed session across all devices. Either may
// be nil. The returned snapshots are copies.
func (s *Sink) Read() (current, lastCompleted *Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, snap := range s.current {
		if current == nil || snap.UpdatedAt.After(current.UpdatedAt) {
			c := snap.clone()
			current = &c
		}
	}
	for _, snap := range s.lastCompleted {
		if lastCompleted == nil || snap.FinishedAt.After(lastCompleted.FinishedAt) {
			c := snap.clone()
			lastCompleted = &c
		}
	}
	return current, lastCompleted
}

// Device returns the current and last-completed snapshots for a single
// device path. Either may be nil.
func (s *Sink) Device(device string) (current, lastCompleted *Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.current[device]; ok {
		c := snap.clone()
		current = &c
	}
	if snap, ok := s.lastCompleted[device]; ok {
		c := snap.clone()
		lastCompleted = &c
	}
	return current, lastCompleted
}

// Active lists every in-progress session sorted by device path.
func (s *Sink) Active() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, 0, len(s.current))
	for _, snap := range s.current {
		out = append(out, snap.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out
}

// Completed lists the last-completed session of every device, most
// recently finished first.
func (s *Sink) Completed() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, 0, len(s.lastCompleted))
	for _, snap := range s.lastCompleted {
		out = append(out, snap.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	return out
}
