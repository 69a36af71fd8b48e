package disc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"ripwatch/internal/services"
)

// Executor runs an external binary and returns its standard output.
// Tests substitute canned robot transcripts.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, binary, args...).Output()
}

// Scanner inventories discs through makemkvcon's robot-mode info
// command.
type Scanner struct {
	binary   string
	executor Executor
}

// NewScanner returns a Scanner that shells out to the given makemkvcon
// binary. An empty binary falls back to the one on PATH.
func NewScanner(binary string) *Scanner {
	return NewScannerWithExecutor(binary, commandExecutor{})
}

// NewScannerWithExecutor is NewScanner with a custom process runner.
func NewScannerWithExecutor(binary string, executor Executor) *Scanner {
	if binary == "" {
		binary = "makemkvcon"
	}
	return &Scanner{binary: binary, executor: executor}
}

// Scan reads the table of contents of the disc in device. It returns
// ErrNotFound when the drive holds no media, ErrUnreadableMedia when
// the disc cannot be read, and ErrCancelled or ErrTimeout when ctx
// ends first.
func (s *Scanner) Scan(ctx context.Context, device string) (*Contents, error) {
	args := []string{"-r", "--cache=1", "info", normalizeDeviceArg(device), "--robot"}
	out, runErr := s.executor.Run(ctx, s.binary, args)
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "disc", "scan", fmt.Sprintf("scan of %s timed out", device), ctxErr)
		}
		return nil, services.Wrap(services.ErrCancelled, "disc", "scan", "scan interrupted", ctxErr)
	}
	contents, present := parseRobotInfo(string(out))
	if runErr != nil {
		return nil, services.Wrap(services.ErrUnreadableMedia, "disc", "scan", scanFailureDetail(string(out), runErr), runErr)
	}
	if !present {
		return nil, services.Wrap(services.ErrNotFound, "disc", "scan", fmt.Sprintf("no disc in %s", device), nil)
	}
	if len(contents.Tracks) == 0 {
		return nil, services.Wrap(services.ErrUnreadableMedia, "disc", "scan", "disc reported no readable titles", nil)
	}
	return contents, nil
}

// scanFailureDetail combines the exit code with any error messages the
// robot output carried before the process died.
func scanFailureDetail(output string, runErr error) string {
	detail := fmt.Sprintf("makemkvcon info failed (exit %d)", exitCodeOf(runErr))
	if warnings := extractScanWarnings(strings.Split(output, "\n")); len(warnings) > 0 {
		detail += ": " + strings.Join(warnings, "; ")
	}
	return detail
}

// normalizeDeviceArg formats a device reference the way makemkvcon
// expects. Plain paths gain a dev: prefix; makemkvcon-native forms
// pass through.
func normalizeDeviceArg(device string) string {
	if device == "" {
		return "disc:0"
	}
	if strings.HasPrefix(device, "dev:") || strings.HasPrefix(device, "disc:") {
		return device
	}
	return "dev:" + device
}

// exitCodeOf digs the process exit code out of an executor error, or
// -1 when the process never ran.
func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
