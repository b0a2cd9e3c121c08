package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/yurifrl/conciliar/pkg/config"
	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/service"
)

var (
	cliFilters filters
	cfgFile    string
)

var rootCmd = &cobra.Command{
	Use:           "conciliar",
	Short:         "Review bank and card statements and import them into the household ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

// app is what every subcommand needs: configuration, a logger and the
// service over an open ledger.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	svc    *service.Service
	close  func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "conciliar",
		Level:           cfg.Level(),
	})
	if cfg.Level() == log.DebugLevel {
		logger.SetReportCaller(true)
	}

	ledger, closeFn, err := cfg.OpenLedger(logger)
	if err != nil {
		return nil, err
	}
	p := parser.New(logger, parser.WithColumns(cfg.Columns))
	svc := service.New(ledger, p, logger, cfg.Workspace, service.WithCommitTimeout(cfg.CommitTimeout))
	logger.Debug("ledger opened", "driver", cfg.Store.Driver, "workspace", cfg.Workspace)
	return &app{cfg: cfg, logger: logger, svc: svc, close: closeFn}, nil
}

func (a *app) Close() {
	if err := a.close(); err != nil {
		a.logger.Warn("failed to close ledger", "error", err)
	}
}

// run opens the app for the duration of fn.
func run(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

// parseDay reads a YYYY-MM-DD flag value, defaulting to today.
func parseDay(raw string) (models.Date, error) {
	if raw == "" {
		return models.DateOf(time.Now()), nil
	}
	return models.ParseDate(raw)
}

func parseOptionalDay(raw string) (*models.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(previewCmd, importCmd, exportCmd)
	rootCmd.AddCommand(categoriesCmd, rulesCmd, syncCmd, recoverCmd, jobsCmd)
	rootCmd.AddCommand(planCmd, applyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
