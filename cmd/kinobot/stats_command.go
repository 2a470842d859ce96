package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kinobot/internal/catalog"
	"kinobot/internal/config"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog totals and recent downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("collect stats: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"Metric", "Value"},
					[][]string{
						{"Users", strconv.Itoa(stats.TotalUsers)},
						{"Subscribed users", strconv.Itoa(stats.SubscribedUsers)},
						{"Movies", strconv.Itoa(stats.TotalEntries)},
						{"Downloads", strconv.Itoa(stats.TotalDownloads)},
					},
					[]columnAlignment{alignLeft, alignRight}))

				if recent <= 0 {
					return nil
				}
				records, err := store.RecentDownloads(cmd.Context(), recent)
				if err != nil {
					return fmt.Errorf("list recent downloads: %w", err)
				}
				if len(records) == 0 {
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						record.DownloadedAt.Local().Format("2006-01-02 15:04:05"),
						strconv.FormatInt(record.UserID, 10),
						record.Code,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"When", "User", "Code"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 10, "Number of recent downloads to show (0 disables)")
	return cmd
}
