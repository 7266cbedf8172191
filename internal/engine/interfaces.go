package engine

import (
	"context"
	"cryptogains/types"
)

// TransactionSource yields ledger records in time order and io.EOF after the
// last one.
type TransactionSource interface {
	Next() (types.TransactionRecord, error)
}

type PriceSource interface {
	LoadYear(ctx context.Context, year int) ([]types.DayPrice, error)
}

// DisposalWriter is the per-tax-year disposal table.
type DisposalWriter interface {
	Write(ctx context.Context, d types.DisposalRecord) error
	Close(ctx context.Context) error
}

type ReportWriter interface {
	OpenYear(ctx context.Context, year int) (DisposalWriter, error)
	WriteSummaries(ctx context.Context, summaries []types.YearlySummary) error
	WriteOpenLots(ctx context.Context, lots []types.Lot) error
}
