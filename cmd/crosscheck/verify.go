package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/crosscheck/internal/archive"
	"github.com/TheMichaelB/crosscheck/internal/history"
	"github.com/TheMichaelB/crosscheck/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [archive-path]",
	Short: "Verify regression archives against the local implementation",
	Long: `Verify replays every vector of one archive, or of every archive
discovered under <archive-root>/regression/ when no path is given.
A failure in one platform's dataset does not stop the others.

The exit status is non-zero if any item fails.`,
	Example: `  crosscheck verify
  crosscheck verify .crosscheck/regression/android.zip
  crosscheck verify --history runs.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

var verifyHistoryDB string

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyHistoryDB, "history", "",
		"Record the run in a SQLite history database")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var paths []string
	if len(args) == 1 {
		paths = []string{args[0]}
	} else {
		descriptors, err := archive.Discover(cfg.Archive.Root, logger)
		if err != nil {
			return fmt.Errorf("discover archives: %w", err)
		}
		if len(descriptors) == 0 {
			printWarning("No regression archives found under %s", cfg.Archive.Root)
			return nil
		}
		for _, d := range descriptors {
			paths = append(paths, d.Path)
		}
	}

	historyDB := verifyHistoryDB
	if historyDB == "" {
		historyDB = cfg.Verify.HistoryDB
	}

	var store *history.Store
	if historyDB != "" {
		var err error
		store, err = history.NewStore(historyDB, logger)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
	}

	loader := archive.NewLoader(logger)
	runner := verify.NewRunner(provider, &cfg.Verify, logger)

	anyFailed := false
	for _, path := range paths {
		ds, err := loader.Materialize(path)
		if err != nil {
			// One broken archive must not block the others.
			printError("%s: no dataset available: %v", path, err)
			anyFailed = true
			continue
		}

		report := runner.VerifyDataset(ctx, ds)
		printReport(report)

		if store != nil {
			if regressed, err := store.Regressed(report); err == nil && regressed {
				printWarning("%s regressed: previous run was all-pass", report.Platform)
			}
			if _, err := store.Record(report); err != nil {
				printWarning("record history: %v", err)
			}
		}

		if !report.Success() {
			anyFailed = true
		}
	}

	if anyFailed {
		return fmt.Errorf("verification failed")
	}
	printSuccess("All platforms verified")
	return nil
}

func printReport(report *verify.Report) {
	if jsonOutput {
		printJSON(report)
		return
	}

	fmt.Printf("%s %s: %d/%d passed\n",
		report.Platform, report.Version, report.Passed, report.Total)

	for alg, counts := range report.ByAlg {
		fmt.Printf("  %-28s %d/%d\n", alg, counts.Passed, counts.Total)
	}

	for _, failure := range report.Failures() {
		printError("  FAIL %s: %s", failure.TestID, failure.Error)
	}
}
