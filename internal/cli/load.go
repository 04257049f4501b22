package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arkilian/partload/internal/config"
	"github.com/arkilian/partload/internal/engine"
	"github.com/arkilian/partload/internal/observability"
)

var loadCmd = &cobra.Command{
	Use:   "load [table...]",
	Short: "Load tables and print their statistics",
	Long: `Load every configured table, or only the named ones, and print row,
partition and batch counts for each. A table that fails to load is reported
and the remaining tables are still loaded.`,
	RunE: runLoad,
}

var loadFlags struct {
	strict      bool
	concurrency int
}

func init() {
	loadCmd.Flags().BoolVar(&loadFlags.strict, "strict", false, "Check every batch against the resolved schema at load time")
	loadCmd.Flags().IntVar(&loadFlags.concurrency, "concurrency", 0, "Maximum partitions decoded at once (default from config)")
	rootCmd.AddCommand(loadCmd)
}

func resetLoadFlags() {
	loadFlags.strict = false
	loadFlags.concurrency = 0
}

func runLoad(cmd *cobra.Command, args []string) error {
	a, err := newApp(func(cfg *config.Config) {
		if loadFlags.strict {
			cfg.StrictConformance = true
		}
		if loadFlags.concurrency > 0 {
			cfg.Concurrency = loadFlags.concurrency
		}
	})
	if err != nil {
		return err
	}
	if err := a.Start(cmd.Context()); err != nil {
		return err
	}
	defer a.Stop()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		loaded, err := a.LoadAll(cmd.Context())
		for _, name := range loaded {
			tbl, _ := a.Session().Table(name)
			printStatistics(out, name, tbl)
		}
		printFailures(cmd.ErrOrStderr(), a.Stats())
		return err
	}

	var failed []string
	for _, name := range args {
		tbl, err := a.LoadTable(cmd.Context(), name)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			failed = append(failed, name)
			continue
		}
		printStatistics(out, name, tbl)
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to load %s", strings.Join(failed, ", "))
	}
	return nil
}

func printStatistics(w io.Writer, name string, tbl *engine.MemTable) {
	st := tbl.Statistics()
	fmt.Fprintf(w, "%s: %d rows, %d partitions, %d batches\n", name, st.NumRows, st.NumPartitions, st.NumBatches)
}

func printFailures(w io.Writer, stats *observability.LoadStats) {
	for _, s := range stats.Snapshot() {
		if s.Failures == 0 {
			continue
		}
		for code, n := range s.Codes {
			fmt.Fprintf(w, "%s: %d failed load(s) with %s after %s\n", s.Table, n, code, s.LastTook)
		}
	}
}
