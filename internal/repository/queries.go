package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBTX is the part of a pgx pool or transaction the queries need.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type assetRow struct {
	ID         int32
	Ticker     string
	Name       string
	Type       string
	CreatedAt  *time.Time
	ModifiedAt *time.Time
}

const getAssetByTicker = `SELECT id, ticker, name, type, created_at, modified_at
FROM assets
WHERE ticker = $1`

func (q *Queries) GetAssetByTicker(ctx context.Context, ticker string) (assetRow, error) {
	row := q.db.QueryRow(ctx, getAssetByTicker, ticker)
	var i assetRow
	err := row.Scan(
		&i.ID,
		&i.Ticker,
		&i.Name,
		&i.Type,
		&i.CreatedAt,
		&i.ModifiedAt,
	)
	return i, err
}

type getDailyOpensParams struct {
	AssetID   int32
	Starttime time.Time
	Endtime   time.Time
}

type dailyOpenRow struct {
	Bucket time.Time
	Open   decimal.Decimal
}

// first() and time_bucket() are TimescaleDB aggregates.
const getDailyOpens = `SELECT time_bucket('1 day', time) AS bucket, first(open, time) AS open
FROM candles
WHERE asset_id = $1 AND time >= $2 AND time < $3
GROUP BY bucket
ORDER BY bucket`

func (q *Queries) GetDailyOpens(ctx context.Context, arg getDailyOpensParams) ([]dailyOpenRow, error) {
	rows, err := q.db.Query(ctx, getDailyOpens, arg.AssetID, arg.Starttime, arg.Endtime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []dailyOpenRow
	for rows.Next() {
		var i dailyOpenRow
		if err := rows.Scan(&i.Bucket, &i.Open); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type createRunParams struct {
	ID           [16]byte
	TrackedUnit  string
	CurrencyUnit string
	StartedAt    time.Time
}

const createRun = `INSERT INTO runs (id, tracked_unit, currency_unit, started_at)
VALUES ($1, $2, $3, $4)`

func (q *Queries) CreateRun(ctx context.Context, arg createRunParams) error {
	_, err := q.db.Exec(ctx, createRun, arg.ID, arg.TrackedUnit, arg.CurrencyUnit, arg.StartedAt)
	return err
}

var disposalColumns = []string{
	"run_id",
	"tax_year",
	"disposal_time",
	"trade_id",
	"order_id",
	"transfer_id",
	"quantity_sold",
	"usd_proceeds",
	"lot_acquisition_time",
	"lot_cost_basis",
	"term",
	"long_term_gain",
	"short_term_gain",
}

func (q *Queries) CopyDisposals(ctx context.Context, rows [][]any) (int64, error) {
	return q.db.CopyFrom(ctx, pgx.Identifier{"disposals"}, disposalColumns, pgx.CopyFromRows(rows))
}

type insertYearlySummaryParams struct {
	RunID          [16]byte
	Year           int32
	Fees           decimal.Decimal
	Rebates        decimal.Decimal
	ShortTermGains decimal.Decimal
	LongTermGains  decimal.Decimal
	TotalSales     decimal.Decimal
	TotalBuys      decimal.Decimal
}

const insertYearlySummary = `INSERT INTO yearly_summaries
(run_id, year, fees, rebates, short_term_gains, long_term_gains, total_sales, total_buys)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (q *Queries) InsertYearlySummary(ctx context.Context, arg insertYearlySummaryParams) error {
	_, err := q.db.Exec(ctx, insertYearlySummary,
		arg.RunID,
		arg.Year,
		arg.Fees,
		arg.Rebates,
		arg.ShortTermGains,
		arg.LongTermGains,
		arg.TotalSales,
		arg.TotalBuys,
	)
	return err
}

var openLotColumns = []string{"run_id", "position", "acquisition_time", "balance", "cost_basis"}

func (q *Queries) CopyOpenLots(ctx context.Context, rows [][]any) (int64, error) {
	return q.db.CopyFrom(ctx, pgx.Identifier{"open_lots"}, openLotColumns, pgx.CopyFromRows(rows))
}
