package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"ripwatch/internal/classify"
	"ripwatch/internal/config"
	"ripwatch/internal/disc"
	"ripwatch/internal/history"
	"ripwatch/internal/logging"
	"ripwatch/internal/notifications"
	"ripwatch/internal/organize"
	"ripwatch/internal/retry"
	"ripwatch/internal/services"
	"ripwatch/internal/services/makemkv"
	"ripwatch/internal/status"
)

// Scanner reads a disc's table of contents.
type Scanner interface {
	Scan(ctx context.Context, device string) (*disc.Contents, error)
}

// Extractor rips the selected titles to destDir, streaming progress events.
type Extractor interface {
	Extract(ctx context.Context, device, destDir string, titles []int) (<-chan makemkv.Event, error)
}

// Placer moves staged files into the library layout.
type Placer interface {
	Place(ctx context.Context, req organize.Request) (*organize.Result, error)
}

// Runner drives one disc session from detection to a terminal state. It owns
// no goroutines; the monitor loop calls Run synchronously and every state
// transition lands in the status sink before Run touches the next stage.
type Runner struct {
	cfg       *config.Config
	sink      *status.Sink
	scanner   Scanner
	extractor Extractor
	placer    Placer
	ejector   disc.Ejector
	store     *history.Store
	notifier  notifications.Service
	logger    *slog.Logger
}

// Option overrides a Runner collaborator, primarily for tests.
type Option func(*Runner)

// WithScanner replaces the disc scanner.
func WithScanner(s Scanner) Option {
	return func(r *Runner) { r.scanner = s }
}

// WithExtractor replaces the extraction driver.
func WithExtractor(e Extractor) Option {
	return func(r *Runner) { r.extractor = e }
}

// WithPlacer replaces the library placer.
func WithPlacer(p Placer) Option {
	return func(r *Runner) { r.placer = p }
}

// WithEjector replaces the tray ejector.
func WithEjector(e disc.Ejector) Option {
	return func(r *Runner) { r.ejector = e }
}

// WithHistory attaches the rip history store for duplicate detection and
// session records. A nil store disables both.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithNotifier replaces the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(r *Runner) { r.notifier = n }
}

// New constructs a Runner, deriving any collaborator not supplied through
// options from the configuration.
func New(cfg *config.Config, sink *status.Sink, logger *slog.Logger, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:    cfg,
		sink:   sink,
		logger: logging.NewComponentLogger(logger, "session"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.scanner == nil {
		r.scanner = disc.NewScanner(cfg.Ripping.MakemkvBinary)
	}
	if r.extractor == nil {
		driver, err := makemkv.New(
			cfg.Ripping.MakemkvBinary,
			cfg.Ripping.RipTimeout,
			makemkv.WithMinLength(cfg.Output.MinLength),
			makemkv.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		r.extractor = driver
	}
	if r.placer == nil {
		r.placer = organize.New(cfg, logger)
	}
	if r.ejector == nil {
		r.ejector = disc.NewEjector()
	}
	if r.notifier == nil {
		r.notifier = notifications.NewService(cfg)
	}
	return r, nil
}

// Run executes one complete session for the device and returns it in a
// terminal state. The returned error mirrors the session's failure for the
// caller's logging; it never indicates a monitor-level problem, and the
// monitor resumes polling either way.
func (r *Runner) Run(ctx context.Context, device string) (*Session, error) {
	sess := newSession(device)
	ctx = services.WithDevice(ctx, device)
	ctx = services.WithSessionID(ctx, sess.ID)
	logger := logging.WithContext(ctx, r.logger)

	r.transition(sess, StateDetected, "Disc detected")
	logger.Info("disc session started")

	contents, err := r.classifyStage(ctx, sess, logger)
	if err != nil {
		return r.fail(ctx, sess, logger, err)
	}
	if sess.Duplicate {
		return r.skipDuplicate(ctx, sess, logger)
	}

	plan, err := r.extractionPlan(sess.Verdict, contents)
	if err != nil {
		return r.fail(ctx, sess, logger, err)
	}

	if err := r.extractStage(ctx, sess, logger, plan); err != nil {
		return r.fail(ctx, sess, logger, err)
	}

	if err := r.finalizeStage(ctx, sess, logger, plan); err != nil {
		return r.fail(ctx, sess, logger, err)
	}

	r.completeSession(ctx, sess, logger)
	return sess, nil
}

// classifyStage reads the table of contents, derives the display title,
// consults history for duplicates, and computes the verdict.
func (r *Runner) classifyStage(ctx context.Context, sess *Session, logger *slog.Logger) (*disc.Contents, error) {
	r.transition(sess, StateClassifying, "Reading disc table of contents")

	scanCtx := ctx
	if timeout := time.Duration(r.cfg.Ripping.ScanTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	contents, err := r.scanner.Scan(scanCtx, sess.Device)
	if err != nil {
		return nil, err
	}

	sess.Label = contents.Label
	sess.Fingerprint = contents.Fingerprint
	sess.Title = organize.DisplayName(contents.Label, contents.Fingerprint)

	if prior := r.findPriorRip(ctx, sess, logger); prior != nil {
		sess.Duplicate = true
		sess.Directory = outputDirOf(prior)
		return contents, nil
	}

	sess.Verdict = classify.Classify(contents.Durations(), classify.Thresholds{
		MinEpisodeDuration: r.cfg.Detection.MinEpisodeDuration,
		MaxEpisodeDuration: r.cfg.Detection.MaxEpisodeDuration,
		MinMovieDuration:   r.cfg.Detection.MinMovieDuration,
	})
	logger.Info(
		"disc classified",
		logging.String(logging.FieldDiscLabel, sess.Label),
		logging.String("title", sess.Title),
		logging.String(logging.FieldVerdict, sess.Verdict.String()),
		logging.Int("track_count", len(contents.Tracks)),
	)

	if r.notifier != nil {
		if err := r.notifier.NotifyDiscDetected(ctx, sess.Title, sess.Device); err != nil {
			logger.Warn("disc detected notification failed", logging.Error(err))
		}
	}
	return contents, nil
}

// findPriorRip returns the completed history record for this fingerprint, or
// nil when the disc is new, rerips are allowed, or history is unavailable.
func (r *Runner) findPriorRip(ctx context.Context, sess *Session, logger *slog.Logger) *history.Record {
	if r.store == nil || r.cfg.Detection.ReripDuplicates || strings.TrimSpace(sess.Fingerprint) == "" {
		return nil
	}
	prior, err := r.store.FindCompletedByFingerprint(ctx, sess.Fingerprint)
	if err != nil {
		logger.Warn("duplicate lookup failed", logging.Error(err))
		return nil
	}
	return prior
}

// skipDuplicate walks an already-ripped disc through the remaining states
// without extracting so the recorded history keeps its usual shape.
func (r *Runner) skipDuplicate(ctx context.Context, sess *Session, logger *slog.Logger) (*Session, error) {
	logger.Info(
		"disc already ripped, skipping",
		logging.String(logging.FieldDiscLabel, sess.Label),
		logging.String("existing_output", sess.Directory),
	)
	r.transition(sess, StateExtracting, "Duplicate disc, skipping extraction")
	r.transition(sess, StateFinalizing, "Duplicate disc, nothing to organize")
	sess.Message = "Disc already ripped"
	if sess.Directory != "" {
		sess.Message += ": " + sess.Directory
	}
	sess.Percent = 100
	r.finish(sess, StateCompleted)

	if r.notifier != nil {
		if err := r.notifier.NotifyDuplicateDisc(ctx, sess.Title); err != nil {
			logger.Warn("duplicate notification failed", logging.Error(err))
		}
	}
	r.eject(ctx, sess, logger, nil)
	return sess, nil
}

// plan is the resolved extraction order: which titles to rip and where the
// results belong in the library.
type plan struct {
	content classify.ContentType
	titles  []int
}

// extractionPlan applies the configured ambiguity policy to the verdict and
// selects titles. Movies take the single longest title; TV takes every title
// inside the episode window, or all titles when none qualify.
func (r *Runner) extractionPlan(verdict classify.Verdict, contents *disc.Contents) (plan, error) {
	content := verdict.Type
	if content == classify.ContentTypeAmbiguous {
		switch r.cfg.Detection.AmbiguousPolicy {
		case "movie":
			content = classify.ContentTypeMovie
		case "tv":
			content = classify.ContentTypeTV
		default:
			return plan{}, services.Wrap(
				services.ErrValidation,
				"session",
				"resolve ambiguity",
				"Disc content is ambiguous and detection.ambiguous_policy is \"abort\"",
				nil,
			)
		}
	}

	if content == classify.ContentTypeMovie {
		longest, ok := contents.Longest()
		if !ok {
			return plan{}, services.Wrap(services.ErrUnreadableMedia, "session", "select titles", "Disc reports no titles to extract", nil)
		}
		return plan{content: content, titles: []int{longest.ID}}, nil
	}

	titles := r.episodeTitles(contents)
	return plan{content: content, titles: titles}, nil
}

// episodeTitles selects tracks within the episode duration window. When none
// qualify (ambiguous discs routed to tv) every title is extracted instead.
func (r *Runner) episodeTitles(contents *disc.Contents) []int {
	ids := make([]int, 0, len(contents.Tracks))
	for _, track := range contents.Tracks {
		if track.Duration >= r.cfg.Detection.MinEpisodeDuration && track.Duration <= r.cfg.Detection.MaxEpisodeDuration {
			ids = append(ids, track.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// extractStage rips the planned titles into per-session staging under the
// retry supervisor, publishing progress along the way.
func (r *Runner) extractStage(ctx context.Context, sess *Session, logger *slog.Logger, p plan) error {
	r.transition(sess, StateExtracting, "Starting extraction")
	r.beginHistory(ctx, sess, logger)
	if r.notifier != nil {
		if err := r.notifier.NotifyRipStarted(ctx, sess.Title); err != nil {
			logger.Warn("rip started notification failed", logging.Error(err))
		}
	}

	stagingDir := r.stagingDir(sess)
	policy := retry.Policy{
		MaxAttempts: r.cfg.Service.RetryCount,
		Delay:       time.Duration(r.cfg.Service.RetryDelay) * time.Second,
	}

	outcome := retry.Run(ctx, logger, policy, func(ctx context.Context, attempt int) error {
		sess.Attempt = attempt
		sess.Percent = 0
		sess.Stage = "Starting"
		sess.Message = fmt.Sprintf("Extraction attempt %d", attempt)
		r.publish(sess)
		return r.runExtraction(ctx, sess, logger, stagingDir, p.titles)
	})

	sess.Attempts = outcome.Attempts
	sess.Attempt = outcome.AttemptCount()
	return outcome.Err
}

// runExtraction consumes one extraction event stream, mirroring progress
// into the sink and returning the terminal event's error, if any.
func (r *Runner) runExtraction(ctx context.Context, sess *Session, logger *slog.Logger, stagingDir string, titles []int) error {
	events, err := r.extractor.Extract(ctx, sess.Device, stagingDir, titles)
	if err != nil {
		return err
	}

	sampler := logging.NewProgressSampler(5)
	var terminalErr error
	for ev := range events {
		switch ev.Kind {
		case makemkv.EventProgress:
			sess.Percent = ev.Percent
			sess.Stage = ev.Stage
			sess.Message = ev.Message
			r.publish(sess)
			if sampler.ShouldLog(ev.Percent, ev.Message) {
				logger.Info(
					"extraction progress",
					logging.Float64(logging.FieldPercent, ev.Percent),
					logging.String("stage", ev.Stage),
					logging.Int("track", ev.Track),
				)
			}
		case makemkv.EventWarning:
			logger.Warn("extraction warning", logging.String("detail", ev.Message))
		case makemkv.EventInfo:
			logger.Info("extraction notice", logging.String("detail", ev.Message))
		case makemkv.EventCompleted:
			sess.Files = ev.Files
			sess.Percent = 100
			sess.Message = ev.Message
			r.publish(sess)
		case makemkv.EventFailed, makemkv.EventCancelled:
			terminalErr = ev.Err
		}
	}
	return terminalErr
}

// finalizeStage names and places the staged files into the library, then
// clears staging.
func (r *Runner) finalizeStage(ctx context.Context, sess *Session, logger *slog.Logger, p plan) error {
	r.transition(sess, StateFinalizing, "Organizing files into library")

	res, err := r.placer.Place(ctx, organize.Request{
		Title:   sess.Title,
		Content: p.content,
		Files:   sess.Files,
	})
	if err != nil {
		return err
	}
	sess.Directory = res.Directory
	sess.Files = res.Placed
	sess.SkippedFiles = res.Skipped
	for _, skipped := range res.Skipped {
		logger.Warn("existing library file kept", logging.String("path", skipped))
	}

	r.cleanupStaging(sess, logger)
	return nil
}

// completeSession publishes the Completed snapshot, records history, fires
// notifications, and handles auto-eject.
func (r *Runner) completeSession(ctx context.Context, sess *Session, logger *slog.Logger) {
	sess.Message = completionMessage(sess)
	sess.Percent = 100
	r.finish(sess, StateCompleted)
	logger.Info(
		"session completed",
		logging.String(logging.FieldVerdict, sess.Verdict.String()),
		logging.Int("file_count", len(sess.Files)),
		logging.Int(logging.FieldAttempt, sess.Attempt),
		logging.String("directory", sess.Directory),
	)

	rec := r.appendHistory(ctx, sess, logger)
	if r.notifier != nil {
		if err := r.notifier.NotifyRipCompleted(ctx, sess.Title, len(sess.Files)); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	}
	r.eject(ctx, sess, logger, rec)
}

// fail moves the session to Failed, records the reason, and performs the
// same bookkeeping as completion. The original error is returned for the
// caller's log line.
func (r *Runner) fail(ctx context.Context, sess *Session, logger *slog.Logger, cause error) (*Session, error) {
	sess.ErrorDetail = services.FailureReason(cause)
	sess.Message = sess.ErrorDetail
	r.finish(sess, StateFailed)
	logger.Error(
		"session failed",
		logging.Error(cause),
		logging.String(logging.FieldState, string(sess.State)),
		logging.Int(logging.FieldAttempt, sess.Attempt),
	)

	rec := r.appendHistory(ctx, sess, logger)
	if r.notifier != nil {
		if err := r.notifier.NotifyRipFailed(ctx, sess.Title, sess.ErrorDetail); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}
	r.eject(ctx, sess, logger, rec)
	return sess, cause
}

// eject performs the optional Completed|Failed → Ejected transition. A
// physical eject failure is logged, never escalated.
func (r *Runner) eject(ctx context.Context, sess *Session, logger *slog.Logger, rec *history.Record) {
	if !r.cfg.Detection.AutoEject || r.ejector == nil {
		return
	}
	if services.IsCancelled(ctx.Err()) {
		// Shutdown is not the moment to open trays.
		return
	}
	if err := r.ejector.Eject(ctx, sess.Device); err != nil {
		logger.Warn("eject failed", logging.Error(err))
		return
	}
	r.finish(sess, StateEjected)
	logger.Info("disc ejected")
	if rec != nil && r.store != nil {
		rec.Ejected = true
		if err := r.store.Update(ctx, rec); err != nil {
			logger.Warn("failed to record ejection", logging.Error(err))
		}
	}
}

// beginHistory persists the session before any title is ripped. A crash
// mid-extraction leaves this row non-terminal, which is what the daemon's
// startup FailInterrupted pass repairs; a normal finish rewrites the same
// row through appendHistory.
func (r *Runner) beginHistory(ctx context.Context, sess *Session, logger *slog.Logger) {
	if r.store == nil || sess.Duplicate {
		return
	}
	rec := &history.Record{
		SessionID:    sess.ID,
		Device:       sess.Device,
		DiscLabel:    sess.Label,
		Fingerprint:  sess.Fingerprint,
		Title:        sess.Title,
		Verdict:      string(sess.Verdict.Type),
		EpisodeCount: sess.Verdict.EpisodeCount,
		State:        history.StateExtracting,
		StartedAt:    sess.StartedAt,
	}
	if err := r.store.Create(ctx, rec); err != nil {
		logger.Warn("failed to record session start", logging.Error(err))
		return
	}
	sess.rec = rec
}

// appendHistory persists the terminal session, rewriting the in-progress
// row from beginHistory when one exists. Duplicate skips are not
// re-recorded; their original completion already is.
func (r *Runner) appendHistory(ctx context.Context, sess *Session, logger *slog.Logger) *history.Record {
	if r.store == nil || sess.Duplicate {
		return nil
	}
	state := history.StateCompleted
	if sess.State == StateFailed {
		state = history.StateFailed
	}
	finished := sess.FinishedAt
	rec := sess.rec
	if rec == nil {
		// Failed before extraction started; no in-progress row exists.
		rec = &history.Record{
			SessionID: sess.ID,
			Device:    sess.Device,
			StartedAt: sess.StartedAt,
		}
	}
	rec.DiscLabel = sess.Label
	rec.Fingerprint = sess.Fingerprint
	rec.Title = sess.Title
	rec.Verdict = string(sess.Verdict.Type)
	rec.EpisodeCount = sess.Verdict.EpisodeCount
	rec.State = state
	rec.ErrorMessage = sess.ErrorDetail
	rec.Attempts = sess.Attempt
	rec.OutputFiles = outputFilesOf(sess)
	rec.FinishedAt = &finished

	var err error
	if rec.ID == 0 {
		err = r.store.Create(ctx, rec)
	} else {
		err = r.store.Update(ctx, rec)
	}
	if err != nil {
		logger.Warn("failed to append history", logging.Error(err))
		return nil
	}
	return rec
}

func (r *Runner) stagingDir(sess *Session) string {
	return filepath.Join(r.cfg.Paths.Temp, sess.ID)
}

func (r *Runner) cleanupStaging(sess *Session, logger *slog.Logger) {
	dir := r.stagingDir(sess)
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn("failed to clean staging directory", logging.String("path", dir), logging.Error(err))
	}
}

// transition advances the session state and publishes the snapshot before
// returning, so observers never see a state the sink has not recorded.
func (r *Runner) transition(sess *Session, to State, message string) {
	if !canTransition(sess.State, to) {
		// Transitions are driven by Run's fixed sequence; a bad edge is a
		// programming error worth surfacing loudly in logs.
		r.logger.Error(
			"illegal state transition",
			logging.String("from", string(sess.State)),
			logging.String("to", string(to)),
			logging.String(logging.FieldSessionID, sess.ID),
		)
		return
	}
	sess.State = to
	sess.Message = message
	sess.history = append(sess.history, to)
	r.publish(sess)
}

// finish enters a terminal state, stamping the completion time once.
func (r *Runner) finish(sess *Session, to State) {
	if !canTransition(sess.State, to) {
		r.logger.Error(
			"illegal state transition",
			logging.String("from", string(sess.State)),
			logging.String("to", string(to)),
			logging.String(logging.FieldSessionID, sess.ID),
		)
		return
	}
	if sess.FinishedAt.IsZero() {
		sess.FinishedAt = time.Now().UTC()
	}
	sess.State = to
	sess.history = append(sess.history, to)
	r.publish(sess)
}

func (r *Runner) publish(sess *Session) {
	if r.sink != nil {
		r.sink.Publish(sess.snapshot())
	}
}

func completionMessage(sess *Session) string {
	switch {
	case len(sess.SkippedFiles) > 0:
		return fmt.Sprintf("Ripped %d file(s), kept %d existing, in %s", len(sess.Files), len(sess.SkippedFiles), sess.Directory)
	case len(sess.Files) > 0:
		return fmt.Sprintf("Ripped %d file(s) to %s", len(sess.Files), sess.Directory)
	default:
		return "Completed with no new files"
	}
}

func outputDirOf(rec *history.Record) string {
	if rec == nil || len(rec.OutputFiles) == 0 {
		return ""
	}
	return filepath.Dir(rec.OutputFiles[0])
}

func outputFilesOf(sess *Session) []string {
	if len(sess.Files) > 0 {
		return sess.Files
	}
	return nil
}
