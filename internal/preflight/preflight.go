package preflight

import (
	"context"

	"ripwatch/internal/config"
)

// Result reports the outcome of a single readiness check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check that applies to the given config:
// working directories, external binaries, monitored device nodes, and ntfy
// reachability when notifications are configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Library directory", cfg.Paths.Base),
		CheckDirectoryAccess("Staging directory", cfg.Paths.Temp),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}

	for _, status := range CheckBinaries(Requirements(cfg)) {
		results = append(results, status.Result())
	}

	for _, device := range cfg.DevicePaths() {
		results = append(results, CheckDeviceNode(device))
	}

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyServer, cfg.Notifications.NtfyTopic))
	}

	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
