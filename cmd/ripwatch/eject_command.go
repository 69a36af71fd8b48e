package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ripwatch/internal/daemonctl"
	"ripwatch/internal/disc"
	"ripwatch/internal/ipc"
)

func newEjectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "eject [device]",
		Short: "Cancel any active rip on the drive and open its tray",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device := ""
			if len(args) > 0 {
				device = strings.TrimSpace(args[0])
			}

			socket := ctx.socketPath()
			client, dialErr := ipc.Dial(socket)
			if dialErr == nil {
				defer client.Close()
				resp, err := client.Eject(device)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			}
			if !daemonctl.IsDaemonUnavailable(dialErr) {
				return wrapDialError(dialErr, socket)
			}

			// No daemon holds the drive, so open the tray directly.
			if device == "" {
				if cfg := ctx.configValue(); cfg != nil {
					device = cfg.Devices.Primary
				}
			}
			if err := disc.NewEjector().Eject(cmd.Context(), device); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ejected %s\n", device)
			return nil
		},
	}
}
