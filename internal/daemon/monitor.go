package daemon

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"ripwatch/internal/config"
	"ripwatch/internal/disc"
	"ripwatch/internal/logging"
)

// deviceMonitor watches one optical drive. It polls the tray status at the
// configured interval and runs a session on the rising edge of media
// presence; the presence flag stays set until the drive reports the disc
// gone, so a finished (or failed) disc is not re-ripped until it is swapped.
type deviceMonitor struct {
	cfg       *config.Config
	logger    *slog.Logger
	device    string
	runner    SessionRunner
	presence  presenceFunc
	waitReady func(ctx context.Context, device string, timeout time.Duration) error
	interval  time.Duration
	kick      chan struct{}

	mu            sync.Mutex
	discPresent   bool
	busy          bool
	sessionCancel context.CancelFunc

	detectFailures int
	spinUpWaited   bool
}

// driveSettleTimeout bounds how long a not-ready drive gets to spin up a
// freshly inserted disc before the monitor falls back to interval polling.
const driveSettleTimeout = 30 * time.Second

func newDeviceMonitor(cfg *config.Config, device string, runner SessionRunner, presence presenceFunc, logger *slog.Logger) *deviceMonitor {
	interval := time.Duration(cfg.Service.CheckInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &deviceMonitor{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "monitor").With(logging.String(logging.FieldDevice, device)),
		device:    device,
		runner:    runner,
		presence:  presence,
		waitReady: disc.WaitForReady,
		interval:  interval,
		kick:      make(chan struct{}, 1),
	}
}

// run polls until the context ends. Sessions execute inline, so one device
// never rips two discs at once and shutdown waits for the session to unwind.
func (m *deviceMonitor) run(ctx context.Context) error {
	m.logger.Info("device monitor started", logging.Duration("interval", m.interval))

	m.poll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("device monitor stopped")
			return nil
		case <-ticker.C:
			m.poll(ctx)
		case <-m.kick:
			m.poll(ctx)
		}
	}
}

// Kick asks the monitor to poll immediately. Used by the netlink listener;
// never blocks.
func (m *deviceMonitor) Kick() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Busy reports whether a session is in flight on this device.
func (m *deviceMonitor) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// CancelActive cancels the in-flight session, if any, and reports whether
// there was one.
func (m *deviceMonitor) CancelActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionCancel == nil {
		return false
	}
	m.sessionCancel()
	return true
}

func (m *deviceMonitor) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	tray, err := m.presence(m.device)
	if err != nil {
		m.detectFailures++
		// A missing or unreadable drive would otherwise warn every tick.
		if m.detectFailures == 1 || m.detectFailures%60 == 0 {
			m.logger.Warn("drive status check failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "drive_status_failed"),
				logging.String(logging.FieldErrorHint, "check the device path and permissions"),
			)
		}
		return
	}
	m.detectFailures = 0

	if tray != disc.StatusNotReady {
		m.spinUpWaited = false
	} else {
		tray = m.awaitSpinUp(ctx)
	}

	if tray != disc.StatusDiscOK {
		m.mu.Lock()
		m.discPresent = false
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if m.discPresent || m.busy {
		m.mu.Unlock()
		return
	}
	m.discPresent = true
	m.mu.Unlock()

	m.runSession(ctx)
}

// awaitSpinUp gives a freshly inserted disc time to become readable. The
// kernel reports CDS_DRIVE_NOT_READY while media spins up, which is what a
// netlink-kicked poll usually observes first; waiting here starts the rip
// as soon as the drive settles instead of on a later tick. The wait runs at
// most once per not-ready episode so a drive that never settles degrades to
// plain interval polling.
func (m *deviceMonitor) awaitSpinUp(ctx context.Context) disc.DriveStatus {
	m.mu.Lock()
	active := m.discPresent || m.busy
	m.mu.Unlock()
	if active || m.spinUpWaited {
		return disc.StatusNotReady
	}
	m.spinUpWaited = true

	if err := m.waitReady(ctx, m.device, driveSettleTimeout); err != nil {
		m.logger.Warn("drive did not settle after insertion",
			logging.Error(err),
			logging.String(logging.FieldEventType, "drive_spinup_timeout"),
			logging.String(logging.FieldErrorHint, "the disc may be damaged or the drive failing"),
		)
		return disc.StatusNotReady
	}
	return disc.StatusDiscOK
}

func (m *deviceMonitor) runSession(ctx context.Context) {
	sessionCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.busy = true
	m.sessionCancel = cancel
	m.mu.Unlock()
	defer func() {
		cancel()
		m.mu.Lock()
		m.busy = false
		m.sessionCancel = nil
		m.mu.Unlock()
	}()

	sess, err := m.runner.Run(sessionCtx, m.device)
	switch {
	case err != nil:
		m.logger.Error("disc session ended in failure",
			logging.Error(err),
			logging.String(logging.FieldEventType, "session_failed"),
			logging.String(logging.FieldErrorHint, "see the session log lines above; the monitor keeps polling"),
		)
	case sess != nil && sess.Duplicate:
		m.logger.Info("disc skipped as duplicate", logging.String(logging.FieldSessionID, sess.ID))
	case sess != nil:
		m.logger.Info("disc session finished", logging.String(logging.FieldSessionID, sess.ID))
	}
}
