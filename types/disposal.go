package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Term string

const (
	TermShort Term = "SHORT"
	TermLong  Term = "LONG"
)

// DisposalRecord is one consumed lot fragment of a sale. Term is the holding
// period of the fragment; the gain sits in the matching field and the other
// one is zero.
type DisposalRecord struct {
	DisposalTime       time.Time
	TradeID            string
	OrderID            string
	TransferID         string
	QuantitySold       decimal.Decimal
	USDProceeds        decimal.Decimal
	LotAcquisitionTime time.Time
	LotCostBasis       decimal.Decimal
	Term               Term
	LongTermGain       decimal.Decimal
	ShortTermGain      decimal.Decimal
}
