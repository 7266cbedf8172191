package repository

import (
	"context"
	"cryptogains/internal/engine"
	"cryptogains/types"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	tracked_unit  TEXT NOT NULL,
	currency_unit TEXT NOT NULL,
	started_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS disposals (
	run_id               TEXT NOT NULL REFERENCES runs (id),
	tax_year             INTEGER NOT NULL,
	disposal_time        TEXT NOT NULL,
	trade_id             TEXT NOT NULL,
	order_id             TEXT NOT NULL,
	transfer_id          TEXT NOT NULL,
	quantity_sold        TEXT NOT NULL,
	usd_proceeds         TEXT NOT NULL,
	lot_acquisition_time TEXT NOT NULL,
	lot_cost_basis       TEXT NOT NULL,
	term                 TEXT NOT NULL,
	long_term_gain       TEXT NOT NULL,
	short_term_gain      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS yearly_summaries (
	run_id           TEXT NOT NULL REFERENCES runs (id),
	year             INTEGER NOT NULL,
	fees             TEXT NOT NULL,
	rebates          TEXT NOT NULL,
	short_term_gains TEXT NOT NULL,
	long_term_gains  TEXT NOT NULL,
	total_sales      TEXT NOT NULL,
	total_buys       TEXT NOT NULL,
	PRIMARY KEY (run_id, year)
);
CREATE TABLE IF NOT EXISTS open_lots (
	run_id           TEXT NOT NULL REFERENCES runs (id),
	position         INTEGER NOT NULL,
	acquisition_time TEXT NOT NULL,
	balance          TEXT NOT NULL,
	cost_basis       TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);`

const (
	sqliteInsertRun = "INSERT INTO runs (id, tracked_unit, currency_unit, started_at) VALUES (?, ?, ?, ?)"

	sqliteInsertDisposal = "INSERT INTO disposals (run_id, tax_year, disposal_time, trade_id, order_id, transfer_id, " +
		"quantity_sold, usd_proceeds, lot_acquisition_time, lot_cost_basis, term, long_term_gain, short_term_gain) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	sqliteInsertSummary = "INSERT INTO yearly_summaries (run_id, year, fees, rebates, short_term_gains, long_term_gains, " +
		"total_sales, total_buys) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"

	sqliteInsertOpenLot = "INSERT INTO open_lots (run_id, position, acquisition_time, balance, cost_basis) VALUES (?, ?, ?, ?, ?)"
)

// SQLiteReportWriter stores results in a local SQLite file. Decimals are
// kept as text so no precision is lost.
type SQLiteReportWriter struct {
	db    *sql.DB
	runID uuid.UUID
	log   zerolog.Logger
}

// OpenSQLite opens (creating if needed) the database file and its schema.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// NewSQLiteReportWriter registers a new run in db and returns a writer for it.
func NewSQLiteReportWriter(ctx context.Context, db *sql.DB, trackedUnit, currencyUnit string, log zerolog.Logger) (*SQLiteReportWriter, error) {
	return newSQLiteReportWriter(ctx, db, uuid.New(), trackedUnit, currencyUnit, time.Now().UTC(), log)
}

func newSQLiteReportWriter(ctx context.Context, db *sql.DB, runID uuid.UUID, trackedUnit, currencyUnit string, startedAt time.Time, log zerolog.Logger) (*SQLiteReportWriter, error) {
	_, err := db.ExecContext(ctx, sqliteInsertRun, runID.String(), trackedUnit, currencyUnit, formatSQLiteTime(startedAt))
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &SQLiteReportWriter{
		db:    db,
		runID: runID,
		log:   log.With().Str("component", "sqlite_sink").Str("run_id", runID.String()).Logger(),
	}, nil
}

func (w *SQLiteReportWriter) RunID() uuid.UUID {
	return w.runID
}

// OpenYear starts a transaction that is committed when the year is closed.
func (w *SQLiteReportWriter) OpenYear(ctx context.Context, year int) (engine.DisposalWriter, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, sqliteInsertDisposal)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("prepare: %w", err)
	}
	return &sqliteDisposalWriter{parent: w, year: year, tx: tx, stmt: stmt}, nil
}

func (w *SQLiteReportWriter) WriteSummaries(ctx context.Context, summaries []types.YearlySummary) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, s := range summaries {
		_, err := tx.ExecContext(ctx, sqliteInsertSummary,
			w.runID.String(),
			s.Year,
			s.Fees.String(),
			s.Rebates.String(),
			s.ShortTermGains.String(),
			s.LongTermGains.String(),
			s.TotalSales.String(),
			s.TotalBuys.String(),
		)
		if err != nil {
			return fmt.Errorf("insert summary %d: %w", s.Year, err)
		}
	}
	return tx.Commit()
}

func (w *SQLiteReportWriter) WriteOpenLots(ctx context.Context, lots []types.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i, lot := range lots {
		_, err := tx.ExecContext(ctx, sqliteInsertOpenLot,
			w.runID.String(),
			i,
			formatSQLiteTime(lot.AcquisitionTime),
			lot.Balance.String(),
			lot.CostBasis.String(),
		)
		if err != nil {
			return fmt.Errorf("insert open lot %d: %w", i, err)
		}
	}
	return tx.Commit()
}

type sqliteDisposalWriter struct {
	parent *SQLiteReportWriter
	year   int
	tx     *sql.Tx
	stmt   *sql.Stmt
	rows   int
}

func (d *sqliteDisposalWriter) Write(ctx context.Context, rec types.DisposalRecord) error {
	_, err := d.stmt.ExecContext(ctx,
		d.parent.runID.String(),
		d.year,
		formatSQLiteTime(rec.DisposalTime),
		rec.TradeID,
		rec.OrderID,
		rec.TransferID,
		rec.QuantitySold.String(),
		rec.USDProceeds.String(),
		formatSQLiteTime(rec.LotAcquisitionTime),
		rec.LotCostBasis.String(),
		string(rec.Term),
		rec.LongTermGain.String(),
		rec.ShortTermGain.String(),
	)
	if err != nil {
		return fmt.Errorf("insert disposal: %w", err)
	}
	d.rows++
	return nil
}

func (d *sqliteDisposalWriter) Close(_ context.Context) error {
	if err := d.stmt.Close(); err != nil {
		_ = d.tx.Rollback()
		return fmt.Errorf("close statement: %w", err)
	}
	if err := d.tx.Commit(); err != nil {
		return fmt.Errorf("commit disposals %d: %w", d.year, err)
	}
	d.parent.log.Debug().Int("year", d.year).Int("rows", d.rows).Msg("Disposals committed")
	return nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
