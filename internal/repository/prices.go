package repository

import (
	"context"
	"cryptogains/types"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CandlePriceSource serves one asset's daily opens from the candles table.
type CandlePriceSource struct {
	db      *Database
	assetID int
	ticker  string
}

func NewCandlePriceSource(ctx context.Context, db *Database, ticker string) (*CandlePriceSource, error) {
	asset, err := db.GetAssetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return &CandlePriceSource{db: db, assetID: asset.Id, ticker: ticker}, nil
}

func (s *CandlePriceSource) LoadYear(ctx context.Context, year int) ([]types.DayPrice, error) {
	return s.db.GetDailyOpens(ctx, s.assetID, types.YearRange(year))
}

// GetDailyOpens returns the first open of every day bucket in the range.
func (db *Database) GetDailyOpens(ctx context.Context, assetID int, window types.PriceRange) ([]types.DayPrice, error) {
	args := getDailyOpensParams{
		AssetID:   int32(assetID),
		Starttime: window.Start,
		Endtime:   window.End,
	}
	rows, err := db.prices.GetDailyOpens(ctx, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPrices
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("asset %d %s..%s: %w", assetID, window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"), ErrNoPrices)
	}
	return convertDailyOpens(rows), nil
}

func convertDailyOpens(rows []dailyOpenRow) []types.DayPrice {
	prices := make([]types.DayPrice, 0, len(rows))
	for _, row := range rows {
		prices = append(prices, types.NewDayPrice(row.Open, row.Bucket.Unix()))
	}
	return prices
}
