/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/lokator/internal/store"
)

var (
	historyDBPath string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the run history",
	Long:  `List, inspect, and clear the SQLite journal of past translation runs.`,
}

func openHistory() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(historyDBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(historyDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tPROVIDER\tLANGS\tSTATE\tDONE\tFAILED\tFILE")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s→%s\t%s\t%d/%d\t%d\t%s\n",
				shortID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04"), r.Provider,
				r.SourceLang, r.TargetLang, r.State,
				r.TranslatedCount, r.TotalEntries, r.FailedCount,
				filepath.Base(r.SourceFile))
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a run and the entries that failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := db.GetRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get run %s: %w", args[0], err)
		}

		fmt.Printf("Run:       %s\n", run.ID)
		fmt.Printf("State:     %s\n", run.State)
		fmt.Printf("Provider:  %s\n", run.Provider)
		fmt.Printf("Languages: %s → %s\n", run.SourceLang, run.TargetLang)
		fmt.Printf("Input:     %s\n", run.SourceFile)
		fmt.Printf("Output:    %s\n", run.TargetFile)
		fmt.Printf("Started:   %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Duration().Round(time.Millisecond))
		fmt.Printf("Entries:   %d/%d processed, %d kept original\n", run.TranslatedCount, run.TotalEntries, run.FailedCount)
		if run.Error != "" {
			fmt.Printf("Error:     %s\n", run.Error)
		}

		failures, err := db.ListFailures(cmd.Context(), run.ID)
		if err != nil {
			return fmt.Errorf("failed to list failures: %w", err)
		}
		if len(failures) == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tERROR")
		for _, f := range failures {
			fmt.Fprintf(w, "%s\t%s\n", f.Key, f.Error)
		}
		return w.Flush()
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total runs:         %d\n", stats.TotalRuns)
		fmt.Printf("Completed:          %d\n", stats.CompletedRuns)
		fmt.Printf("Cancelled:          %d\n", stats.CancelledRuns)
		fmt.Printf("Failed:             %d\n", stats.FailedRuns)
		fmt.Printf("Entries processed:  %d\n", stats.EntriesTranslated)
		fmt.Printf("Entries kept as-is: %d\n", stats.EntryFailures)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a run by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := db.GetRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get run %s: %w", args[0], err)
		}
		if err := db.DeleteRun(cmd.Context(), run.ID); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		fmt.Printf("Deleted run: %s\n", run.ID)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all runs from the history",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearRuns(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Printf("Cleared %d runs from history.\n", n)
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.PersistentFlags().StringVar(&historyDBPath, "db", defaultDBPath(), "Database path")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to show (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}
