package main

import (
	"context"
	"cryptogains/internal/engine"
	"cryptogains/internal/importer"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type gainsCmd struct {
	first int
	last  int
	sink  string
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "compute FIFO capital gains per tax year" }
func (*gainsCmd) Usage() string {
	return `cryptogains gains [-first <year>] [-last <year>] [-sink csv|postgres|sqlite]

  Matches every disposal in the trades file against the oldest open lots,
  writes one disposal table per tax year plus the yearly summary and the
  lots still open, and prints the summary.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.first, "first", 0, "first covered tax year (defaults to FIRST_YEAR)")
	f.IntVar(&c.last, "last", 0, "last covered tax year (defaults to LAST_YEAR)")
	f.StringVar(&c.sink, "sink", "", "where results go: csv, postgres or sqlite (defaults to SINK)")
}

func (c *gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer a.close()

	if c.first != 0 {
		a.cfg.FirstYear = c.first
	}
	if c.last != 0 {
		a.cfg.LastYear = c.last
	}
	if c.sink != "" {
		a.cfg.Sink = c.sink
	}
	if err := a.cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	result, err := c.run(ctx, a)
	if err != nil {
		a.log.Error().Err(err).Msg("Run failed")
		return subcommands.ExitFailure
	}
	engine.WriteSummaryReport(os.Stdout, result, a.cfg.CurrencyUnit)
	return subcommands.ExitSuccess
}

func (c *gainsCmd) run(ctx context.Context, a *app) (*engine.Result, error) {
	trades, err := os.Open(a.cfg.TradesFile)
	if err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}
	defer trades.Close()

	txs, err := importer.NewTransactionReader(trades)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.cfg.TradesFile, err)
	}
	overrides, err := importer.LoadOverrides(a.cfg.DepositsFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.cfg.DepositsFile, err)
	}
	prices, err := a.priceSource(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := a.reportWriter(ctx)
	if err != nil {
		return nil, err
	}

	eng := engine.NewEngine(
		a.assets(),
		a.taxYears(),
		engine.NewReportingConfig(a.cfg.ShowProgress),
		prices,
		engine.NewOverrideResolver(overrides),
		reports,
		a.log,
	)
	return eng.Run(ctx, txs)
}
