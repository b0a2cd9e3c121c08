package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliar/pkg/executors"
	"github.com/yurifrl/conciliar/pkg/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Preview a YAML plan of statements (dry-run)",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, args []string, a *app) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Plan preview for %s\n", args[0])
		p.Print(cmd.OutOrStdout())
		_, err = executors.New(a.logger, a.svc).Plan(cmd.Context(), p)
		return err
	}),
}

var applyCmd = &cobra.Command{
	Use:   "apply <plan_file>",
	Short: "Seed categories and import every statement of a YAML plan",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, args []string, a *app) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		_, err = executors.New(a.logger, a.svc).Apply(cmd.Context(), p)
		return err
	}),
}
