package repository

import (
	"context"
	"cryptogains/types"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRunID  = uuid.MustParse("6f1c2f9e-3f0a-4d55-9b7e-1c2d3e4f5a6b")
	saleTime   = time.Date(2017, 3, 4, 12, 30, 0, 0, time.UTC)
	acquiredAt = time.Date(2017, 1, 2, 10, 0, 0, 0, time.UTC)
)

func testDisposal() types.DisposalRecord {
	return types.DisposalRecord{
		DisposalTime:       saleTime,
		TradeID:            "101",
		OrderID:            "ord-1",
		TransferID:         "",
		QuantitySold:       decimal.RequireFromString("0.4"),
		USDProceeds:        decimal.RequireFromString("60"),
		LotAcquisitionTime: acquiredAt,
		LotCostBasis:       decimal.RequireFromString("40"),
		Term:               types.TermShort,
		LongTermGain:       decimal.Zero,
		ShortTermGain:      decimal.RequireFromString("20"),
	}
}

type fakeResultsRepository struct {
	run       createRunParams
	disposals [][]any
	summaries []insertYearlySummaryParams
	openLots  [][]any
	copyErr   error
}

func (f *fakeResultsRepository) CreateRun(_ context.Context, arg createRunParams) error {
	f.run = arg
	return nil
}

func (f *fakeResultsRepository) CopyDisposals(_ context.Context, rows [][]any) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.disposals = append(f.disposals, rows...)
	return int64(len(rows)), nil
}

func (f *fakeResultsRepository) InsertYearlySummary(_ context.Context, arg insertYearlySummaryParams) error {
	f.summaries = append(f.summaries, arg)
	return nil
}

func (f *fakeResultsRepository) CopyOpenLots(_ context.Context, rows [][]any) (int64, error) {
	f.openLots = append(f.openLots, rows...)
	return int64(len(rows)), nil
}

func TestPostgresReportWriter(t *testing.T) {
	ctx := context.Background()
	repo := &fakeResultsRepository{}

	w, err := newPostgresReportWriter(ctx, repo, testRunID, "BTC", "USD", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, [16]byte(testRunID), repo.run.ID)
	assert.Equal(t, "BTC", repo.run.TrackedUnit)

	year, err := w.OpenYear(ctx, 2017)
	require.NoError(t, err)
	require.NoError(t, year.Write(ctx, testDisposal()))
	require.NoError(t, year.Write(ctx, testDisposal()))
	assert.Empty(t, repo.disposals, "rows are buffered until the year is closed")

	require.NoError(t, year.Close(ctx))
	require.Len(t, repo.disposals, 2)
	row := repo.disposals[0]
	require.Len(t, row, len(disposalColumns))
	assert.Equal(t, int32(2017), row[1])
	assert.Equal(t, "101", row[3])
	assert.True(t, row[7].(decimal.Decimal).Equal(decimal.RequireFromString("60")))
	assert.Equal(t, "SHORT", row[10])

	summaries := []types.YearlySummary{*types.NewYearlySummary(2017), *types.NewYearlySummary(2018)}
	require.NoError(t, w.WriteSummaries(ctx, summaries))
	require.Len(t, repo.summaries, 2)
	assert.Equal(t, int32(2018), repo.summaries[1].Year)

	lots := []types.Lot{types.NewLot(acquiredAt, decimal.RequireFromString("0.6"), decimal.RequireFromString("60"))}
	require.NoError(t, w.WriteOpenLots(ctx, lots))
	require.Len(t, repo.openLots, 1)
	assert.Len(t, repo.openLots[0], len(openLotColumns))
}

func TestPostgresReportWriter_CopyError(t *testing.T) {
	ctx := context.Background()
	copyErr := errors.New("connection reset")
	repo := &fakeResultsRepository{copyErr: copyErr}

	w, err := newPostgresReportWriter(ctx, repo, testRunID, "BTC", "USD", zerolog.Nop())
	require.NoError(t, err)
	year, err := w.OpenYear(ctx, 2017)
	require.NoError(t, err)
	require.NoError(t, year.Write(ctx, testDisposal()))

	err = year.Close(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, copyErr))
}

func TestSQLiteReportWriter(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	started := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	run := testRunID.String()

	mock.ExpectExec(sqliteInsertRun).
		WithArgs(run, "BTC", "USD", "2021-01-01T00:00:00Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectBegin()
	mock.ExpectPrepare(sqliteInsertDisposal).
		ExpectExec().
		WithArgs(run, int64(2017), "2017-03-04T12:30:00Z", "101", "ord-1", "",
			"0.4", "60", "2017-01-02T10:00:00Z", "40", "SHORT", "0", "20").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(sqliteInsertSummary).
		WithArgs(run, int64(2017), "1", "0", "20", "0", "60", "100").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(sqliteInsertOpenLot).
		WithArgs(run, int64(0), "2017-01-02T10:00:00Z", "0.6", "60").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w, err := newSQLiteReportWriter(ctx, db, testRunID, "BTC", "USD", started, zerolog.Nop())
	require.NoError(t, err)

	year, err := w.OpenYear(ctx, 2017)
	require.NoError(t, err)
	require.NoError(t, year.Write(ctx, testDisposal()))
	require.NoError(t, year.Close(ctx))

	summary := types.NewYearlySummary(2017)
	summary.Fees = decimal.RequireFromString("1")
	summary.ShortTermGains = decimal.RequireFromString("20")
	summary.TotalSales = decimal.RequireFromString("60")
	summary.TotalBuys = decimal.RequireFromString("100")
	require.NoError(t, w.WriteSummaries(ctx, []types.YearlySummary{*summary}))

	lots := []types.Lot{types.NewLot(acquiredAt, decimal.RequireFromString("0.6"), decimal.RequireFromString("60"))}
	require.NoError(t, w.WriteOpenLots(ctx, lots))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteReportWriter_InsertFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	mock.ExpectExec(sqliteInsertRun).
		WithArgs(sqlmock.AnyArg(), "BTC", "USD", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectBegin()
	mock.ExpectExec(sqliteInsertSummary).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	w, err := newSQLiteReportWriter(ctx, db, testRunID, "BTC", "USD", time.Now(), zerolog.Nop())
	require.NoError(t, err)

	err = w.WriteSummaries(ctx, []types.YearlySummary{*types.NewYearlySummary(2019)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert summary 2019")
	assert.NoError(t, mock.ExpectationsWereMet())
}
