package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/replay/internal/storage/runs"
	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	RunE:  runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs, 0 for all")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func openHistory(cmd *cobra.Command) (*runs.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.History.Path == "" {
		return nil, fmt.Errorf("no history path configured")
	}
	return runs.Open(runContext(cmd), cfg.History.Path)
}

func runRuns(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(runContext(cmd), runsLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTRATEGY\tSYMBOL\tSTATUS\tTRADES\tRETURN\tSHARPE\tMAX DD")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%.2f%%\t%.2f\t%.2f%%\n",
			shortID(r.ID), humanize.Time(r.StartedAt), r.Strategy, r.Symbol, r.Status,
			r.Trades, r.TotalReturnPct, r.Sharpe, r.MaxDrawdownPct)
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Get(runContext(cmd), args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run:        %s\n", r.ID)
	fmt.Fprintf(w, "Strategy:   %s %v\n", r.Strategy, r.Params)
	fmt.Fprintf(w, "Source:     %s (%s)\n", r.Source, r.Symbol)
	fmt.Fprintf(w, "Started:    %s (%s, took %s)\n", r.StartedAt.Format("2006-01-02 15:04:05"), humanize.Time(r.StartedAt), r.Duration)
	fmt.Fprintf(w, "Status:     %s\n", r.Status)
	if r.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", r.Error)
		return nil
	}
	fmt.Fprintf(w, "Bars:       %s\n", humanize.Comma(int64(r.Bars)))
	fmt.Fprintf(w, "Trades:     %d (win rate %.1f%%)\n", r.Trades, r.WinRate)
	fmt.Fprintf(w, "Balance:    %s -> %s\n",
		humanize.FormatFloat("#,###.##", r.InitialBalance), humanize.FormatFloat("#,###.##", r.FinalValue))
	fmt.Fprintf(w, "Return:     %.2f%%\n", r.TotalReturnPct)
	fmt.Fprintf(w, "Sharpe:     %.3f  Sortino: %.3f\n", r.Sharpe, r.Sortino)
	fmt.Fprintf(w, "Max DD:     %.2f%%\n", r.MaxDrawdownPct)
	if r.ReportLocation != "" {
		fmt.Fprintf(w, "Report:     %s\n", r.ReportLocation)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
