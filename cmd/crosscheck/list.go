package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/crosscheck/internal/archive"
	"github.com/TheMichaelB/crosscheck/internal/history"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered regression archives",
	Long: `List scans <archive-root>/regression/ and prints a descriptor for
each archive whose metadata parses, without decoding vector or binary
payloads.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	descriptors, err := archive.Discover(cfg.Archive.Root, logger)
	if err != nil {
		return fmt.Errorf("discover archives: %w", err)
	}

	if jsonOutput {
		printJSON(descriptors)
		return nil
	}

	if len(descriptors) == 0 {
		printWarning("No regression archives found under %s", cfg.Archive.Root)
		return nil
	}

	fmt.Printf("%-24s %-12s %-8s %s\n", "PLATFORM", "VERSION", "TESTS", "PATH")
	for _, d := range descriptors {
		fmt.Printf("%-24s %-12s %-8d %s\n", d.Platform, d.Version, d.TestCount, d.Path)
	}
	return nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past verification runs",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20,
		"Maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if cfg.Verify.HistoryDB == "" {
		return fmt.Errorf("verify.history_db is not configured")
	}

	store, err := history.NewStore(cfg.Verify.HistoryDB, logger)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if jsonOutput {
		printJSON(runs)
		return nil
	}

	if len(runs) == 0 {
		printWarning("No recorded runs")
		return nil
	}

	fmt.Printf("%-6s %-24s %-12s %-20s %s\n", "ID", "PLATFORM", "VERSION", "RAN", "RESULT")
	for _, run := range runs {
		result := fmt.Sprintf("%d/%d passed", run.Passed, run.Total)
		fmt.Printf("%-6d %-24s %-12s %-20s %s\n",
			run.ID, run.Platform, run.Version,
			run.RanAt.Format("2006-01-02 15:04:05"), result)
	}
	return nil
}
