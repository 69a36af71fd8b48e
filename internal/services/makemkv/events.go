package makemkv

// EventKind discriminates extraction stream events.
type EventKind int

const (
	// EventProgress reports percent-complete within the current stage.
	EventProgress EventKind = iota
	// EventInfo relays a notable informational message.
	EventInfo
	// EventWarning relays a recoverable problem, e.g. a read error.
	EventWarning
	// EventCompleted is terminal: the rip produced output files.
	EventCompleted
	// EventFailed is terminal: the rip did not produce usable output.
	EventFailed
	// EventCancelled is terminal: the caller's context ended the rip.
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventInfo:
		return "info"
	case EventWarning:
		return "warning"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is one update from a running extraction. Exactly one terminal
// event ends every stream.
type Event struct {
	Kind EventKind

	// Percent, Stage, and Track describe progress. Track is -1 until
	// the rip reports which title it is working on.
	Percent float64
	Stage   string
	Track   int

	// Message is the human-readable text for info, warning, and
	// terminal events.
	Message string

	// Files lists the produced outputs on EventCompleted, sorted by
	// name.
	Files []string
	// TitlesSaved and TitlesFailed are the counts from the rip result
	// summary when the tool reported one.
	TitlesSaved  int
	TitlesFailed int

	// ExitCode is the subprocess exit code on EventFailed, -1 when the
	// process never ran or the failure was not an exit.
	ExitCode int
	// Err carries the classified failure cause on EventFailed and
	// EventCancelled. Retryability follows services.IsRetryable.
	Err error
}

// Terminal reports whether the event ends its stream.
func (e Event) Terminal() bool {
	switch e.Kind {
	case EventCompleted, EventFailed, EventCancelled:
		return true
	default:
		return false
	}
}
