package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"ripwatch/internal/config"
	"ripwatch/internal/disc"
	"ripwatch/internal/history"
	"ripwatch/internal/logging"
	"ripwatch/internal/notifications"
	"ripwatch/internal/session"
	"ripwatch/internal/status"
)

// SessionRunner drives one detected disc to a terminal state.
type SessionRunner interface {
	Run(ctx context.Context, device string) (*session.Session, error)
}

// presenceFunc reads a drive's tray status. Swapped in tests.
type presenceFunc func(device string) (disc.DriveStatus, error)

// Daemon supervises the per-device monitors and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *history.Store
	sink     *status.Sink
	runner   SessionRunner
	notifier notifications.Service
	ejector  disc.Ejector
	presence presenceFunc

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	cancel   context.CancelFunc
	group    *errgroup.Group
	monitors []*deviceMonitor
	netlink  *netlinkMonitor
	api      *apiServer
}

// DeviceState is one drive's view in a status report.
type DeviceState struct {
	Device string `json:"device"`
	Tray   string `json:"tray"`
	Busy   bool   `json:"busy"`
}

// Status is the daemon's runtime report, shared by the IPC and HTTP
// surfaces.
type Status struct {
	Running       bool              `json:"running"`
	PID           int               `json:"pid"`
	Devices       []DeviceState     `json:"devices"`
	Active        []status.Snapshot `json:"active"`
	LastCompleted []status.Snapshot `json:"last_completed"`
	Current       *status.Snapshot  `json:"current,omitempty"`
	LastFinished  *status.Snapshot  `json:"last_finished,omitempty"`
	DBPath        string            `json:"db_path"`
	LockPath      string            `json:"lock_path"`
	SocketPath    string            `json:"socket_path"`
}

// New constructs a daemon around initialized collaborators.
func New(cfg *config.Config, store *history.Store, sink *status.Sink, runner SessionRunner, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || sink == nil || runner == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, sink, runner, and logger")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		sink:     sink,
		runner:   runner,
		notifier: notifications.NewService(cfg),
		ejector:  disc.NewEjector(),
		presence: disc.Status,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the monitors. It returns
// once everything is running; Wait blocks until shutdown.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another ripwatch daemon instance is already running")
	}

	if n, err := d.store.FailInterrupted(ctx, history.InterruptedReason); err != nil {
		d.logger.Warn("failed to mark interrupted sessions", logging.Error(err))
	} else if n > 0 {
		d.logger.Info("marked interrupted sessions from previous run", logging.Int64("count", n))
	}

	if days := d.cfg.Service.HistoryRetentionDays; days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		if n, err := d.store.Prune(ctx, cutoff); err != nil {
			d.logger.Warn("failed to prune rip history", logging.Error(err))
		} else if n > 0 {
			d.logger.Info("pruned old rip history",
				logging.Int64("count", n),
				logging.Int("retention_days", days),
			)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	d.cancel = cancel
	d.group = group

	devices := d.cfg.DevicePaths()
	d.monitors = make([]*deviceMonitor, 0, len(devices))
	for _, device := range devices {
		m := newDeviceMonitor(d.cfg, device, d.runner, d.presence, d.logger)
		d.monitors = append(d.monitors, m)
		group.Go(func() error { return m.run(groupCtx) })
	}

	d.netlink = newNetlinkMonitor(d.logger, d.monitors)
	d.netlink.Start(groupCtx)

	if d.cfg.API.Enabled {
		api, err := newAPIServer(d.cfg, d, d.logger)
		if err != nil {
			d.releaseStart()
			return err
		}
		if api != nil {
			if err := api.start(groupCtx); err != nil {
				d.releaseStart()
				return err
			}
			d.api = api
		}
	}

	d.running.Store(true)
	d.logger.Info(
		"ripwatch daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("device_count", len(devices)),
	)
	return nil
}

// releaseStart unwinds a partially started daemon.
func (d *Daemon) releaseStart() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.netlink != nil {
		d.netlink.Stop()
		d.netlink = nil
	}
	if d.group != nil {
		_ = d.group.Wait()
		d.group = nil
	}
	_ = d.lock.Unlock()
}

// Wait blocks until every monitor has exited.
func (d *Daemon) Wait() error {
	if d.group == nil {
		return nil
	}
	err := d.group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop cancels monitors (and any in-flight session), stops the ancillary
// listeners, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.netlink != nil {
		d.netlink.Stop()
		d.netlink = nil
	}
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	if d.group != nil {
		_ = d.group.Wait()
		d.group = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.monitors = nil
	d.running.Store(false)
	d.logger.Info("ripwatch daemon stopped")
}

// Close stops the daemon and closes the history store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether monitors are active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status assembles the runtime report for IPC and HTTP callers.
func (d *Daemon) Status(ctx context.Context) Status {
	st := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Active:        d.sink.Active(),
		LastCompleted: d.sink.Completed(),
		DBPath:        d.cfg.DatabasePath(),
		LockPath:      d.lockPath,
		SocketPath:    d.cfg.SocketPath(),
	}
	// Merged single-session view for consumers that do not care which
	// drive is working: the freshest active session and the most recently
	// finished one.
	st.Current, st.LastFinished = d.sink.Read()
	for _, device := range d.cfg.DevicePaths() {
		state := DeviceState{Device: device, Tray: "unknown"}
		if tray, err := d.presence(device); err == nil {
			state.Tray = tray.String()
		}
		if m := d.monitorFor(device); m != nil {
			state.Busy = m.Busy()
		}
		st.Devices = append(st.Devices, state)
	}
	return st
}

// RecentHistory lists the newest rip records.
func (d *Daemon) RecentHistory(ctx context.Context, limit int) ([]*history.Record, error) {
	return d.store.Recent(ctx, limit)
}

// HistoryStats aggregates record counts by terminal state.
func (d *Daemon) HistoryStats(ctx context.Context) (map[string]int, error) {
	return d.store.Stats(ctx)
}

// ClearHistory removes every rip record and returns the count.
func (d *Daemon) ClearHistory(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// Eject opens the named drive's tray, first cancelling any session that is
// using it. An empty device means the primary drive.
func (d *Daemon) Eject(ctx context.Context, device string) (string, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		device = d.cfg.Devices.Primary
	}

	if m := d.monitorFor(device); m != nil && m.CancelActive() {
		d.logger.Info("cancelling active session for manual eject", logging.String(logging.FieldDevice, device))
		if err := d.waitIdle(ctx, m, 10*time.Second); err != nil {
			return "", err
		}
	}

	if err := d.ejector.Eject(ctx, device); err != nil {
		return "", err
	}
	return fmt.Sprintf("ejected %s", device), nil
}

// waitIdle blocks until the monitor finishes unwinding its session.
func (d *Daemon) waitIdle(ctx context.Context, m *deviceMonitor, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if !m.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return errors.New("session did not stop in time")
		case <-tick.C:
		}
	}
}

// TestNotification sends a test push using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func (d *Daemon) monitorFor(device string) *deviceMonitor {
	for _, m := range d.monitors {
		if m.device == device {
			return m
		}
	}
	return nil
}
