package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kinobot/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon paths and environment checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", cfg.DatabasePath())
			fmt.Fprintf(out, "Lock file: %s\n", cfg.LockPath())
			fmt.Fprintf(out, "Socket: %s\n", cfg.ResolveSocketPath())
			if _, err := os.Stat(cfg.ResolveSocketPath()); err == nil {
				fmt.Fprintln(out, "Daemon socket present")
			} else {
				fmt.Fprintln(out, "Daemon socket absent (daemon not running?)")
			}

			rows := make([][]string, 0, 4)
			for _, result := range preflight.Run(cfg) {
				state := "FAIL"
				if result.Passed {
					state = "OK"
				}
				rows = append(rows, []string{result.Name, state, result.Detail})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Check", "State", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}
}
