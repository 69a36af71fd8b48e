package daemonctl

import (
	"context"
	"errors"
	"time"

	"ripwatch/internal/config"
	"ripwatch/internal/daemon"
	"ripwatch/internal/history"
	"ripwatch/internal/ipc"
	"ripwatch/internal/preflight"
)

// StatusSnapshot combines the daemon's own report with checks the CLI runs
// locally, so `ripwatch status` still has something to show when the daemon
// is down.
type StatusSnapshot struct {
	Daemon   ipc.StatusResponse
	Checks   []preflight.Result
	Disc     preflight.DiscProbe
	RipStats map[string]int
}

// BuildStatusSnapshot gathers daemon status over IPC and fills in offline
// fallbacks for drive and rip-history data when the socket is unreachable.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config) (*StatusSnapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &StatusSnapshot{}

	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snap.Daemon = *resp
		}
		if stats, statsErr := client.HistoryStats(); statsErr == nil && stats != nil {
			snap.RipStats = stats.Stats
		}
	}

	if !snap.Daemon.Running {
		devices := cfg.DevicePaths()
		states := make([]daemon.DeviceState, 0, len(devices))
		for _, device := range devices {
			states = append(states, daemon.DeviceState{Device: device, Tray: "unknown"})
		}
		snap.Daemon.Devices = states
		snap.Daemon.DBPath = cfg.DatabasePath()
		snap.Daemon.LockPath = cfg.LockPath()
		snap.Daemon.SocketPath = socketPath
	}

	if snap.RipStats == nil {
		queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if store, openErr := history.Open(cfg); openErr == nil {
			if stats, statsErr := store.Stats(queryCtx); statsErr == nil {
				snap.RipStats = stats
			}
			_ = store.Close()
		}
	}

	snap.Checks = preflight.RunAll(ctx, cfg)
	snap.Disc = preflight.ProbeDisc(cfg.Devices.Primary)
	return snap, nil
}
