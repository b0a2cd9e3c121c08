package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliar/pkg/csv"
	"github.com/yurifrl/conciliar/pkg/executors"
	"github.com/yurifrl/conciliar/pkg/service"
)

var (
	periodFlag   string
	billDateFlag string
	dumpFlag     bool
	csvFlag      bool
	yesFlag      bool
)

// openSession previews one statement file for the period covering periodFlag.
func openSession(cmd *cobra.Command, a *app, path string) (*service.Session, error) {
	day, err := parseDay(periodFlag)
	if err != nil {
		return nil, err
	}
	billDate, err := parseOptionalDay(billDateFlag)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	period, err := a.svc.PeriodFor(cmd.Context(), day)
	if err != nil {
		return nil, err
	}
	if _, err := a.svc.SyncRecurrences(cmd.Context(), period.ID, false); err != nil {
		return nil, err
	}
	session := a.svc.NewSession(period.ID)
	session.SetBillDate(billDate)
	if _, err := session.PreviewFile(cmd.Context(), filepath.Base(path), data); err != nil {
		return nil, err
	}
	return session, nil
}

func printSession(session *service.Session) {
	st := session.State()
	names := csv.CategoryNames(session.Categories())
	for _, row := range st.Rows {
		fmt.Println(executors.RenderRow(row, names))
	}
	fmt.Println(executors.Report{File: st.FileName, Period: session.PeriodID(), Counts: st.Counts}.Summary())
}

var previewCmd = &cobra.Command{
	Use:   "preview [flags] <statement>",
	Short: "Parse a statement and show how each row would be imported",
	Args:  cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, args []string, a *app) error {
		session, err := openSession(cmd, a, args[0])
		if err != nil {
			return err
		}
		switch {
		case dumpFlag:
			pp.Println(session.State())
		case csvFlag:
			st := session.State()
			rows := csv.Rows(st.Rows, csv.CategoryNames(session.Categories()))
			fmt.Print(string(csv.Create(rows, filterFunc[csv.Row](&cliFilters))))
		default:
			printSession(session)
		}
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import [flags] <statement|directory>",
	Short: "Import the ready rows of a statement, or of every statement in a directory",
	Long: "Rows are committed only with --yes; without it the command is a dry run.\n" +
		"Rows still waiting for a category are never imported.",
	Args: cobra.ExactArgs(1),
	RunE: run(func(cmd *cobra.Command, args []string, a *app) error {
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if info.IsDir() {
			return importDirectory(cmd, a, args[0])
		}

		session, err := openSession(cmd, a, args[0])
		if err != nil {
			return err
		}
		printSession(session)
		if !yesFlag {
			fmt.Println("\nDry run: pass --yes to import the ready rows")
			return nil
		}
		res, err := session.ConfirmImport(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("\nImported %d transaction(s) (job %s)\n", res.Imported, res.JobID)
		return nil
	}),
}

func importDirectory(cmd *cobra.Command, a *app, dir string) error {
	day, err := parseDay(periodFlag)
	if err != nil {
		return err
	}
	period, err := a.svc.PeriodFor(cmd.Context(), day)
	if err != nil {
		return err
	}
	if _, err := a.svc.SyncRecurrences(cmd.Context(), period.ID, false); err != nil {
		return err
	}

	outcomes, err := service.NewProcessor(a.svc, period.ID, yesFlag, a.logger).ProcessDirectory(cmd.Context(), dir)
	if err != nil {
		return err
	}
	reports := make([]executors.Report, 0, len(outcomes))
	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Printf("%s: %s\n", filepath.Base(o.Path), service.UserMessage(o.Err))
			continue
		}
		reports = append(reports, executors.Report{File: filepath.Base(o.Path), Period: period.ID, Counts: o.Counts, Result: o.Result})
	}
	executors.PrintSummary(os.Stdout, reports)
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(outcomes))
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{previewCmd, importCmd} {
		c.Flags().StringVarP(&periodFlag, "period", "p", "", "Any day of the target month (YYYY-MM-DD, default today)")
		c.Flags().StringVar(&billDateFlag, "bill-date", "", "Card bill date (YYYY-MM-DD), required to import card statements")
	}
	previewCmd.Flags().BoolVar(&dumpFlag, "dump", false, "Pretty-print the full session state")
	previewCmd.Flags().BoolVar(&csvFlag, "csv", false, "Print the preview as CSV")
	cliFilters.register(previewCmd.Flags())
	importCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Commit the ready rows")
}
