package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ripwatch/internal/history"
	"ripwatch/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent rips",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(client *ipc.Client, store *history.Store) error {
				if clear {
					var removed int64
					if client != nil {
						resp, err := client.HistoryClear()
						if err != nil {
							return err
						}
						removed = resp.Removed
					} else {
						var err error
						removed, err = store.Clear(cmd.Context())
						if err != nil {
							return err
						}
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history records\n", removed)
					return nil
				}

				var records []*history.Record
				if client != nil {
					resp, err := client.History(limit)
					if err != nil {
						return err
					}
					records = resp.Records
				} else {
					var err error
					records, err = store.Recent(cmd.Context(), limit)
					if err != nil {
						return err
					}
				}

				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No rips recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Type", "State", "Files", "Finished"},
					buildHistoryRows(records),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete all rip history")
	return cmd
}

func buildHistoryRows(records []*history.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		title := strings.TrimSpace(rec.Title)
		if title == "" {
			title = strings.TrimSpace(rec.DiscLabel)
		}
		verdict := rec.Verdict
		if verdict == "tv" && rec.EpisodeCount > 0 {
			verdict = fmt.Sprintf("tv (%d ep)", rec.EpisodeCount)
		}
		finished := "-"
		if rec.FinishedAt != nil {
			finished = rec.FinishedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", rec.ID),
			title,
			verdict,
			formatStateLabel(rec.State),
			fmt.Sprintf("%d", len(rec.OutputFiles)),
			finished,
		})
	}
	return rows
}
