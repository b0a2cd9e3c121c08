package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/yurifrl/conciliar/pkg/config"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/server"
	"github.com/yurifrl/conciliar/pkg/service"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "conciliar",
	})

	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	cfgFile := fs.StringP("config", "c", "", "Config file (default is config.yaml)")
	config.RegisterFlags(fs)
	fs.String("addr", "", "Listen address (default 0.0.0.0:3000)")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Build(*cfgFile, fs)
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	logger.SetLevel(cfg.Level())

	ledger, closeLedger, err := cfg.OpenLedger(logger)
	if err != nil {
		logger.Fatal("failed to open ledger", "err", err)
	}
	defer closeLedger()

	svc := service.New(ledger, parser.New(logger, parser.WithColumns(cfg.Columns)), logger, cfg.Workspace,
		service.WithCommitTimeout(cfg.CommitTimeout))
	if rec, err := svc.Recover(context.Background()); err != nil {
		logger.Warn("import recovery failed", "err", err)
	} else if len(rec.Completed)+len(rec.Failed) > 0 {
		logger.Info("recovered interrupted imports", "completed", len(rec.Completed), "failed", len(rec.Failed))
	}

	srv := server.New(svc, logger)
	logger.Info("starting server", "addr", cfg.Server.Addr, "workspace", cfg.Workspace, "store", cfg.Store.Driver)
	if err := srv.Start(cfg.Server.Addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
