package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a quantity of the tracked asset acquired at one time. CostBasis is
// the USD cost of the remaining Balance only.
type Lot struct {
	AcquisitionTime time.Time       `json:"acquisitionTime"`
	Balance         decimal.Decimal `json:"balance"`
	CostBasis       decimal.Decimal `json:"costBasis"`
}

func NewLot(acquired time.Time, balance, costBasis decimal.Decimal) Lot {
	return Lot{
		AcquisitionTime: acquired,
		Balance:         balance,
		CostBasis:       costBasis,
	}
}

// Override is a manually supplied cost basis for one deposit, keyed by the
// deposit's transfer id.
type Override struct {
	TransferID string
	Date       time.Time
	Amount     decimal.Decimal
	CostBasis  decimal.Decimal
}

func (o Override) Lot() Lot {
	return NewLot(o.Date, o.Amount, o.CostBasis)
}
