package makemkv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ripwatch/internal/logging"
	"ripwatch/internal/services"
)

// Executor abstracts subprocess execution so tests can script robot
// output without a real makemkvcon.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error
}

// Option configures the driver.
type Option func(*Driver)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(d *Driver) {
		if exec != nil {
			d.exec = exec
		}
	}
}

// WithMinLength skips titles shorter than the given number of seconds.
func WithMinLength(seconds int) Option {
	return func(d *Driver) {
		d.minLength = seconds
	}
}

// WithLogger attaches a logger for rip chatter.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger.With(logging.String(logging.FieldComponent, "makemkv"))
		}
	}
}

// Driver wraps makemkvcon invocations.
type Driver struct {
	binary     string
	ripTimeout time.Duration
	minLength  int
	exec       Executor
	logger     *slog.Logger
}

// New constructs a rip driver. An empty binary is an error because
// nothing downstream can recover from it.
func New(binary string, ripTimeoutSeconds int, opts ...Option) (*Driver, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "makemkv", "new", "makemkv binary required", nil)
	}
	driver := &Driver{
		binary:     binary,
		ripTimeout: time.Duration(ripTimeoutSeconds) * time.Second,
		exec:       commandExecutor{},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(driver)
	}
	return driver, nil
}

// Extract rips the given titles from device into destDir and returns
// the event stream for this run. An empty titles slice rips every
// title the minimum-length filter admits. The stream ends with exactly
// one terminal event; it is not restartable.
func (d *Driver) Extract(ctx context.Context, device, destDir string, titles []int) (<-chan Event, error) {
	if strings.TrimSpace(destDir) == "" {
		return nil, services.Wrap(services.ErrValidation, "makemkv", "extract", "destination directory required", nil)
	}
	events := make(chan Event, 64)
	go d.run(ctx, device, destDir, normalizeTitleIDs(titles), events)
	return events, nil
}

func (d *Driver) run(parent context.Context, device, destDir string, titles []int, events chan<- Event) {
	defer close(events)

	// Progress chatter may be dropped once the caller is gone; the
	// terminal event is always delivered because consumers read the
	// stream until it closes.
	emit := func(ev Event) {
		select {
		case events <- ev:
		case <-parent.Done():
		}
	}
	finish := func(ev Event) {
		events <- ev
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		wrapped := services.Wrap(services.ErrDestinationWrite, "makemkv", "rip", fmt.Sprintf("create destination %s", destDir), err)
		finish(Event{Kind: EventFailed, ExitCode: -1, Message: wrapped.Error(), Err: wrapped})
		return
	}

	runCtx := parent
	if d.ripTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(parent, d.ripTimeout)
		defer cancel()
	}
	runCtx, cancelRip := context.WithCancelCause(runCtx)
	defer cancelRip(nil)

	handler := &msgHandler{logger: d.logger, emit: emit, cancelRip: cancelRip}
	tracker := newProgressTracker()
	var lastStderr string

	onStdout := func(line string) {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "PRG"):
			if ev, ok := tracker.apply(line); ok {
				emit(ev)
			}
		case strings.HasPrefix(line, "MSG:"):
			handler.handle(line)
		}
	}
	onStderr := func(line string) {
		if line = strings.TrimSpace(line); line != "" {
			lastStderr = line
		}
	}

	var runErr error
	for _, selector := range titleSelectors(titles) {
		args := d.ripArgs(device, destDir, selector)
		d.logger.Debug("launching makemkvcon",
			slog.String("selector", selector),
			slog.String("destination", destDir),
		)
		if runErr = d.exec.Run(runCtx, d.binary, args, onStdout, onStderr); runErr != nil {
			break
		}
		if handler.fatalErr != nil || runCtx.Err() != nil {
			break
		}
	}

	exitCode := exitCodeOf(runErr)
	counts := func(ev Event) Event {
		ev.TitlesSaved = handler.savedTotal
		ev.TitlesFailed = handler.failedTotal
		return ev
	}

	if fatal := handler.fatalErr; fatal != nil {
		finish(counts(Event{Kind: EventFailed, ExitCode: exitCode, Message: fatal.Error(), Err: fatal}))
		return
	}
	if parent.Err() != nil {
		wrapped := services.Wrap(services.ErrCancelled, "makemkv", "rip", "extraction cancelled", context.Cause(parent))
		finish(Event{Kind: EventCancelled, Message: "extraction cancelled", Err: wrapped})
		return
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		detail := fmt.Sprintf("rip exceeded %s", d.ripTimeout)
		wrapped := services.Wrap(services.ErrTimeout, "makemkv", "rip", detail, runCtx.Err())
		finish(counts(Event{Kind: EventFailed, ExitCode: exitCode, Message: detail, Err: wrapped}))
		return
	}
	if runErr != nil {
		detail := fmt.Sprintf("makemkvcon exited with code %d", exitCode)
		if lastStderr != "" {
			detail += ": " + lastStderr
		}
		wrapped := services.Wrap(services.ErrTransient, "makemkv", "rip", detail, runErr)
		finish(counts(Event{Kind: EventFailed, ExitCode: exitCode, Message: detail, Err: wrapped}))
		return
	}
	if handler.zeroSaved() {
		wrapped := services.Wrap(services.ErrUnreadableMedia, "makemkv", "rip", "rip finished but saved no titles; check disc readability", nil)
		finish(counts(Event{Kind: EventFailed, ExitCode: 0, Message: wrapped.Error(), Err: wrapped}))
		return
	}

	files, err := collectOutputs(destDir)
	if err != nil {
		wrapped := services.Wrap(services.ErrDestinationWrite, "makemkv", "rip", "inspect rip outputs", err)
		finish(counts(Event{Kind: EventFailed, ExitCode: 0, Message: wrapped.Error(), Err: wrapped}))
		return
	}
	if len(files) == 0 {
		wrapped := services.Wrap(services.ErrUnreadableMedia, "makemkv", "rip", "makemkv produced no output file; check disc for read errors", nil)
		finish(counts(Event{Kind: EventFailed, ExitCode: 0, Message: wrapped.Error(), Err: wrapped}))
		return
	}
	finish(counts(Event{
		Kind:    EventCompleted,
		Percent: 100,
		Files:   files,
		Message: fmt.Sprintf("%d file(s) ripped", len(files)),
	}))
}

func (d *Driver) ripArgs(device, destDir, selector string) []string {
	args := []string{"--robot", "--progress=-same", "mkv", deviceArg(device), selector, destDir}
	if d.minLength > 0 {
		args = append(args, fmt.Sprintf("--minlength=%d", d.minLength))
	}
	return args
}

// titleSelectors expands explicit title ids into one rip invocation
// each; no ids means a single "all" rip.
func titleSelectors(titles []int) []string {
	if len(titles) == 0 {
		return []string{"all"}
	}
	out := make([]string, len(titles))
	for i, id := range titles {
		out[i] = strconv.Itoa(id)
	}
	return out
}

func normalizeTitleIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	uniq := make([]int, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if id < 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Ints(uniq)
	return uniq
}

func deviceArg(device string) string {
	if device == "" {
		return "disc:0"
	}
	if strings.HasPrefix(device, "dev:") || strings.HasPrefix(device, "disc:") {
		return device
	}
	return "dev:" + device
}

// collectOutputs lists the .mkv files the rip produced, sorted by name
// so episode order is stable.
func collectOutputs(dir string) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(item.Name()), ".mkv") {
			files = append(files, filepath.Join(dir, item.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// progressTracker folds PRGT/PRGC/PRGV lines into progress events.
// PRGT names the overall operation, PRGC the current title, PRGV the
// current/total/max counters.
type progressTracker struct {
	stage string
	track int
	title string
}

func newProgressTracker() *progressTracker {
	return &progressTracker{stage: "Analyzing", track: -1}
}

func (t *progressTracker) apply(line string) (Event, bool) {
	switch {
	case strings.HasPrefix(line, "PRGT:"):
		if name := parseMSGText(line); name != "" {
			t.stage = name
		}
	case strings.HasPrefix(line, "PRGC:"):
		fields := strings.SplitN(strings.TrimPrefix(line, "PRGC:"), ",", 3)
		if len(fields) >= 2 {
			if id, err := strconv.Atoi(fields[1]); err == nil {
				t.track = id
			}
		}
		t.title = parseMSGText(line)
	case strings.HasPrefix(line, "PRGV:"):
		parts := strings.Split(strings.TrimPrefix(line, "PRGV:"), ",")
		if len(parts) < 3 {
			return Event{}, false
		}
		total, totalErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		maximum, maxErr := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if totalErr != nil || maxErr != nil || maximum <= 0 {
			return Event{}, false
		}
		return Event{
			Kind:    EventProgress,
			Percent: total / maximum * 100,
			Stage:   t.stage,
			Track:   t.track,
			Message: t.title,
		}, true
	}
	return Event{}, false
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	// One mutex serialises both forwarders so line handlers never run
	// concurrently.
	var mu sync.Mutex
	var wg sync.WaitGroup
	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			mu.Lock()
			forward(scanner.Text())
			mu.Unlock()
		}
	}

	wg.Add(2)
	go scan(stdout, onStdout)
	go scan(stderr, onStderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return err
	}
	return nil
}
