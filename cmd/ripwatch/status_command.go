package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ripwatch/internal/daemonctl"
	"ripwatch/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, drive, and rip status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if snap.Daemon.Running {
				fmt.Fprintln(stdout, renderStatusLine("Ripwatch", statusOK, fmt.Sprintf("Running (pid %d)", snap.Daemon.PID), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Ripwatch", statusWarn, "Not running (run `ripwatch start`)", colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, snap.Daemon.SocketPath, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, snap.Daemon.DBPath, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Drives", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range driveLines(snap, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Checks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, check := range snap.Checks {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Rip History", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := buildStateCountRows(snap.RipStats)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No rips recorded")
				return nil
			}
			fmt.Fprintln(stdout, renderTable([]string{"State", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func driveLines(snap *daemonctl.StatusSnapshot, colorize bool) []string {
	if len(snap.Daemon.Devices) == 0 {
		return []string{renderStatusLine("Drives", statusWarn, "No drives configured", colorize)}
	}
	active := make(map[string]status.Snapshot, len(snap.Daemon.Active))
	for _, s := range snap.Daemon.Active {
		active[s.Device] = s
	}

	lines := make([]string, 0, len(snap.Daemon.Devices)+1)
	for _, device := range snap.Daemon.Devices {
		kind := statusInfo
		detail := "tray " + device.Tray
		if s, ok := active[device.Device]; ok {
			kind = statusOK
			detail = activeSessionDetail(s)
		} else if device.Busy {
			kind = statusOK
			detail = "busy"
		}
		lines = append(lines, renderStatusLine(device.Device, kind, detail, colorize))
	}
	if snap.Disc.Detected {
		lines = append(lines, renderStatusLine("Disc", statusOK, snap.Disc.DiscDetail(), colorize))
	}
	return lines
}

func activeSessionDetail(s status.Snapshot) string {
	label := strings.TrimSpace(s.Title)
	if label == "" {
		label = strings.TrimSpace(s.DiscLabel)
	}
	if label == "" {
		label = "disc"
	}
	detail := fmt.Sprintf("%s %s", s.State, label)
	if s.Stage != "" {
		detail = fmt.Sprintf("%s (%s %.0f%%)", detail, s.Stage, s.Percent)
	}
	return detail
}

func buildStateCountRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStateLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func formatStateLabel(state string) string {
	state = strings.TrimSpace(state)
	if state == "" {
		return ""
	}
	parts := strings.Split(state, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}
