// Command helios runs a live portfolio dashboard for one investor account.
// Widgets refresh on their own intervals and are served over SSE together
// with the balance history kept in a local WAL.
//
// Usage:
//
//	helios --config config.yaml
//	helios --setup           (interactive wizard, writes config.gen.yaml)
//	helios --config config.yaml --once
//
// Environment overrides (also read from .env):
//
//	HELIOS_SUPABASE_URL, HELIOS_SUPABASE_KEY, HELIOS_POSTGRES_DSN,
//	HELIOS_WEB_ADDR, HELIOS_KAFKA_BROKERS
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/config"
	"github.com/vadiminshakov/helios/internal"
	"github.com/vadiminshakov/helios/internal/report"
	"github.com/vadiminshakov/helios/internal/services/generator"
	"github.com/vadiminshakov/helios/internal/setup"
)

func main() {
	conf, flags, err := config.Get()
	if err != nil && !flags.Setup {
		log.Fatal(err)
	}
	if flags.Setup {
		path, err := setup.RunTUI()
		if err != nil {
			log.Fatal(err)
		}
		if conf, err = config.Load(path); err != nil {
			log.Fatal(err)
		}
	}

	logger, err := newLogger(conf.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dashboard, err := internal.NewDashboard(conf, logger)
	if err != nil {
		logger.Fatal("failed to create dashboard", zap.Error(err))
	}
	defer func() {
		if err := dashboard.Close(); err != nil {
			logger.Error("failed to close dashboard", zap.Error(err))
		}
	}()

	if flags.Once {
		if err := printOnce(ctx, dashboard, conf); err != nil {
			logger.Error("failed to print report", zap.Error(err))
		}
		return
	}

	if err := dashboard.Run(ctx); err != nil {
		logger.Error("dashboard stopped with error", zap.Error(err))
	}
}

func printOnce(ctx context.Context, d *internal.Dashboard, conf config.Config) error {
	if err := d.Sync(ctx); err != nil {
		return err
	}
	history, err := d.History()
	if err != nil {
		return err
	}

	opts := generator.Options{Period: conf.Period, View: conf.View}
	return report.NewConsole(os.Stdout).Print(time.Now(), d.Session.Account(), opts, history)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}
