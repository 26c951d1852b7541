package main

import (
	"fmt"

	"github.com/newthinker/replay/internal/feed"
	"github.com/spf13/cobra"
)

var (
	convertSymbol   string
	convertInterval string
)

var convertCmd = &cobra.Command{
	Use:   "convert [input] [output.parquet]",
	Short: "Convert a bar file to Parquet",
	Long:  "Read and validate a CSV (or Parquet) bar file and write it as Parquet.",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertSymbol, "symbol", "", "symbol for files without a symbol column")
	convertCmd.Flags().StringVar(&convertInterval, "interval", "", "bar interval label")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	src, err := feed.Open(args[0], feed.Options{Symbol: convertSymbol, Interval: convertInterval}, log)
	if err != nil {
		return err
	}
	bars, err := src.Load(runContext(cmd))
	if err != nil {
		return err
	}
	if err := feed.WriteParquet(args[1], bars); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bars (%s to %s) to %s\n",
		len(bars), bars[0].Time.Format("2006-01-02"), bars[len(bars)-1].Time.Format("2006-01-02"), args[1])
	return nil
}
