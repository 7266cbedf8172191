package repository

import (
	"context"
	"cryptogains/internal/engine"
	"cryptogains/types"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PostgresReportWriter stores a run's results in the disposals,
// yearly_summaries and open_lots tables, every row tagged with the run id.
type PostgresReportWriter struct {
	results resultsRepository
	runID   uuid.UUID
	log     zerolog.Logger
}

// NewPostgresReportWriter registers a new run and returns a writer for it.
func NewPostgresReportWriter(ctx context.Context, db *Database, trackedUnit, currencyUnit string, log zerolog.Logger) (*PostgresReportWriter, error) {
	return newPostgresReportWriter(ctx, db.results, uuid.New(), trackedUnit, currencyUnit, log)
}

func newPostgresReportWriter(ctx context.Context, results resultsRepository, runID uuid.UUID, trackedUnit, currencyUnit string, log zerolog.Logger) (*PostgresReportWriter, error) {
	err := results.CreateRun(ctx, createRunParams{
		ID:           runID,
		TrackedUnit:  trackedUnit,
		CurrencyUnit: currencyUnit,
		StartedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &PostgresReportWriter{
		results: results,
		runID:   runID,
		log:     log.With().Str("component", "postgres_sink").Str("run_id", runID.String()).Logger(),
	}, nil
}

func (w *PostgresReportWriter) RunID() uuid.UUID {
	return w.runID
}

func (w *PostgresReportWriter) OpenYear(_ context.Context, year int) (engine.DisposalWriter, error) {
	return &pgDisposalWriter{parent: w, year: int32(year)}, nil
}

func (w *PostgresReportWriter) WriteSummaries(ctx context.Context, summaries []types.YearlySummary) error {
	for _, s := range summaries {
		err := w.results.InsertYearlySummary(ctx, insertYearlySummaryParams{
			RunID:          w.runID,
			Year:           int32(s.Year),
			Fees:           s.Fees,
			Rebates:        s.Rebates,
			ShortTermGains: s.ShortTermGains,
			LongTermGains:  s.LongTermGains,
			TotalSales:     s.TotalSales,
			TotalBuys:      s.TotalBuys,
		})
		if err != nil {
			return fmt.Errorf("insert summary %d: %w", s.Year, err)
		}
	}
	return nil
}

func (w *PostgresReportWriter) WriteOpenLots(ctx context.Context, lots []types.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(lots))
	for i, lot := range lots {
		rows = append(rows, []any{
			[16]byte(w.runID),
			int32(i),
			lot.AcquisitionTime.UTC(),
			lot.Balance,
			lot.CostBasis,
		})
	}
	if _, err := w.results.CopyOpenLots(ctx, rows); err != nil {
		return fmt.Errorf("copy open lots: %w", err)
	}
	return nil
}

// pgDisposalWriter buffers one year's rows and copies them in on Close.
type pgDisposalWriter struct {
	parent *PostgresReportWriter
	year   int32
	rows   [][]any
}

func (d *pgDisposalWriter) Write(_ context.Context, rec types.DisposalRecord) error {
	d.rows = append(d.rows, []any{
		[16]byte(d.parent.runID),
		d.year,
		rec.DisposalTime.UTC(),
		rec.TradeID,
		rec.OrderID,
		rec.TransferID,
		rec.QuantitySold,
		rec.USDProceeds,
		rec.LotAcquisitionTime.UTC(),
		rec.LotCostBasis,
		string(rec.Term),
		rec.LongTermGain,
		rec.ShortTermGain,
	})
	return nil
}

func (d *pgDisposalWriter) Close(ctx context.Context) error {
	if len(d.rows) == 0 {
		return nil
	}
	n, err := d.parent.results.CopyDisposals(ctx, d.rows)
	if err != nil {
		return fmt.Errorf("copy disposals %d: %w", d.year, err)
	}
	d.parent.log.Debug().Int32("year", d.year).Int64("rows", n).Msg("Disposals copied")
	d.rows = nil
	return nil
}
