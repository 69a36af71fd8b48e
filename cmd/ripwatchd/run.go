package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"ripwatch/internal/config"
	"ripwatch/internal/daemon"
	"ripwatch/internal/history"
	"ripwatch/internal/ipc"
	"ripwatch/internal/logging"
	"ripwatch/internal/logs"
	"ripwatch/internal/notifications"
	"ripwatch/internal/preflight"
	"ripwatch/internal/session"
	"ripwatch/internal/status"
)

// run hosts the daemon until SIGINT/SIGTERM or an IPC Stop request. Every
// run writes its own timestamped log file; the ripwatchd.log pointer always
// tracks the current one so the CLI can tail it without asking the daemon.
func run(cmdCtx context.Context, cfg *config.Config, logLevel string) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("ripwatchd-%s.log", runID))
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            logLevel,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logs.CurrentName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: logs.RunPattern, Exclude: []string{logPath}},
	)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	for _, check := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
		logger.Warn("readiness check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldImpact, "ripping may fail until resolved"),
		)
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	defer store.Close()

	sink := status.NewSink()
	notifier := notifications.NewService(cfg)
	runner, err := session.New(cfg, sink, logger,
		session.WithHistory(store),
		session.WithNotifier(notifier),
	)
	if err != nil {
		return fmt.Errorf("build session runner: %w", err)
	}

	d, err := daemon.New(cfg, store, sink, runner, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// Start before the control socket binds: a second instance must fail on
	// the lock without disturbing the live daemon's socket file.
	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "is another ripwatchd holding the lock?"),
		)
		return err
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger, ipc.Options{
		LogPath: logPath,
		OnStop:  cancel,
	})
	if err != nil {
		return fmt.Errorf("start control socket: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("ripwatchd shutting down")
	return nil
}

// ensureCurrentLogPointer keeps LogDir/ripwatchd.log pointing at the active
// run log. Symlink first; hard link covers filesystems without symlinks.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logs.CurrentName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
