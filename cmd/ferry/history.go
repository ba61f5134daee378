package main

import (
	"fmt"

	"github.com/ferryd/ferry/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyDB    string
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transfer runs from the history database",
		Long: `Show recent transfer runs recorded in the history database, newest first.
Runs are only recorded when a history database is configured, either with
history_db in the config file or --history-db on the run command.`,
		Example: `  ferry history
  ferry history --limit 5
  ferry history --history-db ./ferry-history.db`,
		RunE: historyRun,
	}

	cmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().StringVar(&historyDB, "history-db", "", "SQLite file recording run history")

	return cmd
}

func historyRun(cmd *cobra.Command, args []string) error {
	dbPath := globalCfg.HistoryDB
	if historyDB != "" {
		dbPath = historyDB
	}
	if dbPath == "" {
		return fmt.Errorf("no history database configured (set history_db or pass --history-db)")
	}

	journal, err := store.New(dbPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer journal.Close()

	runs, err := journal.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(out, "%-4s %-20s %-22s %-6s %6s %6s %6s %6s %5s\n",
		"ID", "Started", "Source", "Mode", "Total", "OK", "Skip", "Fail", "Exit")
	for _, run := range runs {
		failed := run.NotFound + run.FetchFailed + run.WriteFailed
		fmt.Fprintf(out, "%-4d %-20s %-22s %-6s %6d %6d %6d %6d %5d\n",
			run.ID,
			run.StartTime.Format("2006-01-02 15:04:05"),
			run.SourceHost,
			run.Mode,
			run.Total,
			run.Transferred,
			run.SkippedExists,
			failed,
			run.ExitCode,
		)
	}
	return nil
}
