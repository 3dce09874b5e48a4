package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/simulate"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [target]",
	Short: "Print the requests a simulation would send to target; nothing is sent",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := simulate.DefaultTarget
		if len(args) == 1 {
			target = args[0]
		}
		set, err := rules.Load(AppConfig.RulesPath, Logger)
		if err != nil {
			return err
		}
		reqs, err := simulate.Plan(target, set)
		if err != nil {
			return err
		}
		out, err := simulate.RenderPlan(target, reqs)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
