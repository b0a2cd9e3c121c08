package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliar/pkg/csv"
	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/recurrence"
)

var exportFilters filters

var exportCmd = &cobra.Command{
	Use:   "export [flags]",
	Short: "Print the ledger entries of a period as CSV",
	Args:  cobra.NoArgs,
	RunE: run(func(cmd *cobra.Command, _ []string, a *app) error {
		day, err := parseDay(periodFlag)
		if err != nil {
			return err
		}
		period, err := a.svc.PeriodFor(cmd.Context(), day)
		if err != nil {
			return err
		}
		txs, err := a.svc.Transactions(cmd.Context(), period.ID)
		if err != nil {
			return err
		}
		categories, err := a.svc.Categories(cmd.Context())
		if err != nil {
			return err
		}
		entries := csv.Entries(txs, csv.CategoryNames(categories))
		fmt.Print(string(csv.Create(entries, filterFunc[csv.Entry](&exportFilters))))
		return nil
	}),
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List, add or delete categories",
	RunE: run(func(cmd *cobra.Command, _ []string, a *app) error {
		categories, err := a.svc.Categories(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range categories {
			scope := "workspace"
			if c.WorkspaceID == nil {
				scope = "global"
			}
			fmt.Printf("%s  %-24s %-10s %s\n", c.ID, c.Name, c.DefaultType, scope)
		}
		return nil
	}),
}

var categoryType string

var categoriesAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, args []string, a *app) error {
		typ, err := models.ParseTransactionType(categoryType)
		if err != nil {
			return err
		}
		c, err := a.svc.CreateCategory(cmd.Context(), args[0], typ)
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", c.Name, c.ID)
		return nil
	}),
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Soft-delete a category",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, args []string, a *app) error {
		return a.svc.DeleteCategory(cmd.Context(), args[0])
	}),
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List or save monthly recurrence rules",
	RunE: run(func(cmd *cobra.Command, _ []string, a *app) error {
		rules, err := a.svc.Ledger().ListRecurrenceRules(cmd.Context(), a.svc.Tenant(), false)
		if err != nil {
			return err
		}
		for _, r := range rules {
			fmt.Printf("%s  %-24s %12s %-10s day %2d from %s active=%t\n",
				r.ID, r.Description, models.FormatBRL(r.Amount), r.Type, r.DayOfMonth, r.StartMonth, r.Active)
		}
		return nil
	}),
}

var ruleInput struct {
	category    string
	description string
	amount      string
	typ         string
	day         int
	start       string
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create or update the monthly rule for a category and description",
	Args:  cobra.NoArgs,
	RunE: run(func(cmd *cobra.Command, _ []string, a *app) error {
		amount, err := decimal.NewFromString(ruleInput.amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", ruleInput.amount, err)
		}
		typ, err := models.ParseTransactionType(ruleInput.typ)
		if err != nil {
			return err
		}
		start, err := parseDay(ruleInput.start)
		if err != nil {
			return err
		}
		r, err := a.svc.SaveRecurrenceRule(cmd.Context(), recurrence.RuleInput{
			CategoryID:  ruleInput.category,
			Description: ruleInput.description,
			Amount:      amount.Abs(),
			Type:        typ,
			DayOfMonth:  ruleInput.day,
			BaseDate:    start,
		})
		if err != nil {
			return err
		}
		fmt.Printf("saved rule %s\n", r.ID)
		return nil
	}),
}

var forceSync bool

var syncCmd = &cobra.Command{
	Use:   "sync-recurrences",
	Short: "Create the planned entries of active recurrence rules for a period",
	Args:  cobra.NoArgs,
	RunE: run(func(cmd *cobra.Command, _ []string, a *app) error {
		day, err := parseDay(periodFlag)
		if err != nil {
			return err
		}
		period, err := a.svc.PeriodFor(cmd.Context(), day)
		if err != nil {
			return err
		}
		out, err := a.svc.SyncRecurrences(cmd.Context(), period.ID, forceSync)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d rule(s), %d entr(ies) created, fallback=%t\n", period.Start, out.Rules, out.Written, out.Fallback)
		return nil
	}),
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Finish or fail imports interrupted mid-commit",
	Args:  cobra.NoArgs,
	RunE: run(func(cmd *cobra.Command, _ []string, a *app) error {
		rec, err := a.svc.Recover(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("completed %d job(s), failed %d job(s)\n", len(rec.Completed), len(rec.Failed))
		return nil
	}),
}

var jobStatus string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List import jobs",
	Args:  cobra.NoArgs,
	RunE: run(func(cmd *cobra.Command, _ []string, a *app) error {
		jobs, err := a.svc.ImportJobs(cmd.Context(), models.ImportJobStatus(jobStatus))
		if err != nil {
			return err
		}
		for _, j := range jobs {
			fmt.Fprintf(os.Stdout, "%s  %-28s %-10s %-20s imported=%d valid=%d dup=%d err=%d %s\n",
				j.ID, j.FileName, j.Status, j.Step, j.ImportedRows, j.ValidRows, j.DuplicateRows, j.ErrorRows, j.FailureReason)
		}
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, syncCmd} {
		c.Flags().StringVarP(&periodFlag, "period", "p", "", "Any day of the target month (YYYY-MM-DD, default today)")
	}
	exportFilters.register(exportCmd.Flags())
	syncCmd.Flags().BoolVar(&forceSync, "force", false, "Sync even if this process already did")

	categoriesAddCmd.Flags().StringVarP(&categoryType, "type", "t", string(models.Expense), "income, expense, transfer or investment")
	categoriesCmd.AddCommand(categoriesAddCmd, categoriesDeleteCmd)

	f := rulesAddCmd.Flags()
	f.StringVar(&ruleInput.category, "category", "", "Category id")
	f.StringVar(&ruleInput.description, "description", "", "Entry description")
	f.StringVar(&ruleInput.amount, "amount", "", "Monthly amount")
	f.StringVarP(&ruleInput.typ, "type", "t", string(models.Expense), "income, expense, transfer or investment")
	f.IntVar(&ruleInput.day, "day", 1, "Day of month, clamped to the month's last day")
	f.StringVar(&ruleInput.start, "start", "", "Any day of the first month (YYYY-MM-DD, default today)")
	for _, name := range []string{"category", "description", "amount"} {
		_ = rulesAddCmd.MarkFlagRequired(name)
	}
	rulesCmd.AddCommand(rulesAddCmd)

	jobsCmd.Flags().StringVar(&jobStatus, "status", "", "processing, completed or failed")
}
