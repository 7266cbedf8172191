package main

import (
	"context"
	"cryptogains/internal/config"
	"cryptogains/internal/engine"
	"cryptogains/internal/importer"
	"cryptogains/internal/repository"
	"cryptogains/pkg/logger"
	"fmt"

	"github.com/rs/zerolog"
)

// app holds what every subcommand builds from the configuration.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *repository.Database
	closers []func()
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) database(ctx context.Context) (*repository.Database, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := repository.NewDatabase(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	return db, nil
}

func (a *app) priceSource(ctx context.Context) (engine.PriceSource, error) {
	switch a.cfg.PriceSource {
	case config.PriceSourcePostgres:
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		return repository.NewCandlePriceSource(ctx, db, a.cfg.TrackedUnit)
	default:
		return importer.NewPriceDir(a.cfg.PricesDir, a.cfg.PricesJSONPath), nil
	}
}

func (a *app) reportWriter(ctx context.Context) (engine.ReportWriter, error) {
	switch a.cfg.Sink {
	case config.SinkPostgres:
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			return nil, err
		}
		w, err := repository.NewPostgresReportWriter(ctx, db, a.cfg.TrackedUnit, a.cfg.CurrencyUnit, a.log)
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("run_id", w.RunID().String()).Msg("Writing results to postgres")
		return w, nil
	case config.SinkSQLite:
		db, err := repository.OpenSQLite(ctx, a.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		w, err := repository.NewSQLiteReportWriter(ctx, db, a.cfg.TrackedUnit, a.cfg.CurrencyUnit, a.log)
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("run_id", w.RunID().String()).Str("path", a.cfg.SQLitePath).Msg("Writing results to sqlite")
		return w, nil
	default:
		return engine.NewCSVReportWriter(a.cfg.OutputDir)
	}
}

func (a *app) taxYears() *engine.TaxYearConfig {
	return engine.NewTaxYearConfig(a.cfg.FirstYear, a.cfg.LastYear, engine.LongTermThreshold)
}

func (a *app) assets() *engine.AssetConfig {
	return engine.NewAssetConfig(a.cfg.TrackedUnit, a.cfg.CurrencyUnit)
}
