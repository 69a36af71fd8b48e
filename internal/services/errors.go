package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnreadableMedia marks disc-level read failures (bad media, no table
	// of contents). Never retried; the session fails immediately.
	ErrUnreadableMedia = errors.New("unreadable media")
	// ErrTransient marks I/O hiccups, drive-busy conditions, and timeout
	// signatures worth retrying.
	ErrTransient = errors.New("transient failure")
	// ErrFatalExtraction marks extraction failures that retrying cannot fix,
	// such as key rejection or unsupported discs.
	ErrFatalExtraction = errors.New("fatal extraction failure")
	// ErrDestinationWrite marks failures writing to the output location.
	ErrDestinationWrite = errors.New("destination write failure")
	// ErrCancelled marks operator-initiated interruption. Treated as a failure
	// outcome, not an exception condition.
	ErrCancelled = errors.New("cancelled")

	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether the failure is worth re-attempting. Transient
// and timeout markers retry; everything else, including cancellation, does
// not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsCancelled(err) {
		return false
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

// IsCancelled reports whether the failure originates from an operator stop or
// context cancellation.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// FailureReason returns the display string recorded on a session's error
// detail. Reporting surfaces show it verbatim.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
