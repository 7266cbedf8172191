package main

import (
	"context"
	"cryptogains/internal/engine"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
)

type priceCmd struct {
	at string
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "show the reference price used for an instant" }
func (*priceCmd) Usage() string {
	return `cryptogains price -at <RFC3339 time>

  Prints the price a deposit or fee at that instant is valued at: the first
  indexed price strictly after it.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.at, "at", "", "instant to look up, e.g. 2017-03-04T12:30:00Z")
}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	at, err := time.Parse(time.RFC3339Nano, c.at)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -at: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	defer a.close()
	if err := a.cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	prices, err := a.priceSource(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("Price source unavailable")
		return subcommands.ExitFailure
	}
	eng := engine.NewEngine(a.assets(), a.taxYears(), engine.NewReportingConfig(false), prices, nil, nil, a.log)
	index, err := eng.LoadPriceIndex(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("Loading prices failed")
		return subcommands.ExitFailure
	}
	price, err := index.Lookup(at)
	if err != nil {
		a.log.Error().Err(err).Msg("Lookup failed")
		return subcommands.ExitFailure
	}
	fmt.Printf("%s %s %s/%s\n", at.UTC().Format(time.RFC3339), price, a.cfg.CurrencyUnit, a.cfg.TrackedUnit)
	return subcommands.ExitSuccess
}
