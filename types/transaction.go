package types

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrMalformedRecord = errors.New("malformed record")

type TransactionRecord struct {
	Portfolio  string
	Action     Action
	RawAction  string
	Time       time.Time
	Amount     decimal.Decimal
	Balance    decimal.Decimal
	Unit       string
	TransferID string
	TradeID    string
	OrderID    string
}

// Year is the tax year the record falls in.
func (r TransactionRecord) Year() int {
	return r.Time.UTC().Year()
}
