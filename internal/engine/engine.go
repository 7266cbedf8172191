package engine

import (
	"context"
	"cryptogains/types"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// Result is what a finished run produced besides the per-year disposal tables.
type Result struct {
	Summaries  []types.YearlySummary
	OpenLots   []types.Lot
	Records    int
	Disposals  int
	Underflows int
}

type Engine struct {
	assetConfig     *AssetConfig
	taxYearConfig   *TaxYearConfig
	reportingConfig *ReportingConfig
	prices          PriceSource
	overrides       *OverrideResolver
	reports         ReportWriter
	log             zerolog.Logger
}

func NewEngine(
	assetConfig *AssetConfig,
	taxYearConfig *TaxYearConfig,
	reportingConfig *ReportingConfig,
	prices PriceSource,
	overrides *OverrideResolver,
	reports ReportWriter,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		assetConfig:     assetConfig,
		taxYearConfig:   taxYearConfig,
		reportingConfig: reportingConfig,
		prices:          prices,
		overrides:       overrides,
		reports:         reports,
		log:             log.With().Str("component", "engine").Logger(),
	}
}

func (e *Engine) Run(ctx context.Context, txs TransactionSource) (*Result, error) {
	if err := e.taxYearConfig.validate(); err != nil {
		return nil, err
	}
	// Load the data
	index, err := e.LoadPriceIndex(ctx)
	if err != nil {
		return nil, err
	}
	e.log.Info().
		Int("overrides", e.overrides.Len()).
		Int("first_year", e.taxYearConfig.firstYear).
		Int("last_year", e.taxYearConfig.lastYear).
		Msg("Processing transactions")

	proc := newProcessor(e.assetConfig, e.taxYearConfig, index, e.overrides, e.reports, e.log)
	bar := initProgressBar(e.reportingConfig)
	err = proc.run(ctx, txs, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Summaries:  proc.summaries.finalize(),
		OpenLots:   proc.ledger.Lots(),
		Records:    proc.records,
		Disposals:  proc.disposals,
		Underflows: proc.underflows,
	}
	if err := e.reports.WriteSummaries(ctx, result.Summaries); err != nil {
		return nil, fmt.Errorf("write summaries: %w", err)
	}
	if err := e.reports.WriteOpenLots(ctx, result.OpenLots); err != nil {
		return nil, fmt.Errorf("write open lots: %w", err)
	}

	e.log.Info().
		Int("records", result.Records).
		Int("disposals", result.Disposals).
		Int("underflows", result.Underflows).
		Int("open_lots", len(result.OpenLots)).
		Str("open_balance", proc.ledger.Total().String()).
		Msg("Run complete")
	return result, nil
}

// LoadPriceIndex reads every covered year's prices and merges them.
func (e *Engine) LoadPriceIndex(ctx context.Context) (*PriceIndex, error) {
	var series [][]types.DayPrice
	for _, year := range e.taxYearConfig.Years() {
		prices, err := e.prices.LoadYear(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("load prices for %d: %w", year, err)
		}
		series = append(series, prices)
	}
	index := NewPriceIndex(series...)

	first, _ := index.First()
	last, _ := index.Last()
	e.log.Info().
		Int("points", index.Len()).
		Time("first", first.Time()).
		Time("last", last.Time()).
		Msg("Price index built")
	return index, nil
}

func initProgressBar(cfg *ReportingConfig) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cfg.progressWriter),
		progressbar.OptionSetVisibility(cfg.showProgress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("[green]Matching lots...[reset]"),
	)
}
