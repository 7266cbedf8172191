package repository

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrAssetNotFound = errors.New("not found in datasource")
	ErrNoPrices      = errors.New("no prices found in datasource")
)

type assetsRepository interface {
	GetAssetByTicker(ctx context.Context, ticker string) (assetRow, error)
}
type pricesRepository interface {
	GetDailyOpens(ctx context.Context, arg getDailyOpensParams) ([]dailyOpenRow, error)
}
type resultsRepository interface {
	CreateRun(ctx context.Context, arg createRunParams) error
	CopyDisposals(ctx context.Context, rows [][]any) (int64, error)
	InsertYearlySummary(ctx context.Context, arg insertYearlySummaryParams) error
	CopyOpenLots(ctx context.Context, rows [][]any) (int64, error)
}

// Database struct that holds the database connection and queries.
type Database struct {
	assets  assetsRepository
	prices  pricesRepository
	results resultsRepository
	conn    *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	queries := NewQueries(conn)
	return &Database{
		assets:  queries,
		prices:  queries,
		results: queries,
		conn:    conn}, nil
}

// Migrate creates the result tables when they do not exist yet. The assets
// and candles tables belong to the market data loader and are not touched.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.conn.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id            UUID PRIMARY KEY,
	tracked_unit  TEXT NOT NULL,
	currency_unit TEXT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS disposals (
	run_id               UUID NOT NULL REFERENCES runs (id),
	tax_year             INTEGER NOT NULL,
	disposal_time        TIMESTAMPTZ NOT NULL,
	trade_id             TEXT NOT NULL,
	order_id             TEXT NOT NULL,
	transfer_id          TEXT NOT NULL,
	quantity_sold        NUMERIC NOT NULL,
	usd_proceeds         NUMERIC NOT NULL,
	lot_acquisition_time TIMESTAMPTZ NOT NULL,
	lot_cost_basis       NUMERIC NOT NULL,
	term                 TEXT NOT NULL,
	long_term_gain       NUMERIC NOT NULL,
	short_term_gain      NUMERIC NOT NULL
);

CREATE TABLE IF NOT EXISTS yearly_summaries (
	run_id           UUID NOT NULL REFERENCES runs (id),
	year             INTEGER NOT NULL,
	fees             NUMERIC NOT NULL,
	rebates          NUMERIC NOT NULL,
	short_term_gains NUMERIC NOT NULL,
	long_term_gains  NUMERIC NOT NULL,
	total_sales      NUMERIC NOT NULL,
	total_buys       NUMERIC NOT NULL,
	PRIMARY KEY (run_id, year)
);

CREATE TABLE IF NOT EXISTS open_lots (
	run_id           UUID NOT NULL REFERENCES runs (id),
	position         INTEGER NOT NULL,
	acquisition_time TIMESTAMPTZ NOT NULL,
	balance          NUMERIC NOT NULL,
	cost_basis       NUMERIC NOT NULL,
	PRIMARY KEY (run_id, position)
);
`
