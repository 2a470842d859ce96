package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"kinobot/internal/catalog"
	"kinobot/internal/config"
	"kinobot/internal/library"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and manage the movie catalog",
	}

	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogRemoveCommand(ctx))

	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				entries, err := store.ListEntries(cmd.Context())
				if err != nil {
					return fmt.Errorf("list entries: %w", err)
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, entriesToRows(entries))
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "Catalog is empty")
					return nil
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.Code,
						entry.Title,
						entry.Filename,
						formatSize(entry.FileSize),
						strconv.FormatInt(entry.DownloadCount, 10),
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Code", "Title", "File", "Size", "Downloads"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable output")
	return cmd
}

func newCatalogRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove CODE",
		Short: "Remove a catalog entry and its stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				code := args[0]
				entry, err := store.GetEntry(cmd.Context(), code)
				if err != nil {
					return fmt.Errorf("resolve code: %w", err)
				}
				if entry == nil {
					return fmt.Errorf("no entry with code %q", code)
				}

				if _, err := store.DeleteEntry(cmd.Context(), code); err != nil {
					return fmt.Errorf("delete entry: %w", err)
				}

				out := cmd.OutOrStdout()
				lib := library.New(cfg.Paths.MoviesDir)
				removed, err := lib.Delete(entry.FilePath)
				if err != nil {
					fmt.Fprintf(out, "Removed %s from the catalog; stored file not deleted: %v\n", code, err)
					return nil
				}
				if removed {
					fmt.Fprintf(out, "Removed %s and deleted %s\n", code, entry.FilePath)
				} else {
					fmt.Fprintf(out, "Removed %s; stored file was already gone\n", code)
				}
				return nil
			})
		},
	}
}

type entryRow struct {
	Code          string `json:"code"`
	Title         string `json:"title"`
	Filename      string `json:"filename"`
	FileSize      int64  `json:"file_size"`
	DownloadCount int64  `json:"download_count"`
	UploadedBy    int64  `json:"uploaded_by"`
	UploadedAt    string `json:"uploaded_at"`
}

func entriesToRows(entries []*catalog.Entry) []entryRow {
	rows := make([]entryRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entryRow{
			Code:          entry.Code,
			Title:         entry.Title,
			Filename:      entry.Filename,
			FileSize:      entry.FileSize,
			DownloadCount: entry.DownloadCount,
			UploadedBy:    entry.UploadedBy,
			UploadedAt:    entry.UploadedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func formatSize(size int64) string {
	const (
		kib = 1024
		mib = 1024 * kib
		gib = 1024 * mib
	)
	switch {
	case size >= gib:
		return fmt.Sprintf("%.1f GiB", float64(size)/gib)
	case size >= mib:
		return fmt.Sprintf("%.1f MiB", float64(size)/mib)
	case size >= kib:
		return fmt.Sprintf("%.1f KiB", float64(size)/kib)
	default:
		return fmt.Sprintf("%d B", size)
	}
}

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
