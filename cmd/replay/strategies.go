package main

import (
	"fmt"

	"github.com/newthinker/replay/internal/strategy"
	"github.com/newthinker/replay/internal/strategy/builtin"
	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List available strategies with their default parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := strategy.NewRegistry()
		builtin.Register(reg)

		w := cmd.OutOrStdout()
		for _, name := range reg.Names() {
			s, err := reg.Build(name, strategy.Params{})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%-20s %s (warmup %d bars)\n", name, s.Description(), s.Warmup())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
