package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ripwatch/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories, and drives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			results := preflight.RunAll(cmd.Context(), cfg)

			stdout := cmd.OutOrStdout()
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				verdict := "OK"
				if !result.Passed {
					verdict = "FAIL"
				}
				rows = append(rows, []string{result.Name, verdict, result.Detail})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Check", "Result", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			colorize := shouldColorize(stdout)
			probe := preflight.ProbeDisc(cfg.Devices.Primary)
			if probe.Detected {
				fmt.Fprintln(stdout, renderStatusLine("Disc", statusOK, probe.DiscDetail(), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Disc", statusInfo, probe.DiscDetail(), colorize))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}
}
