package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type DayPrice struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"`
}

func NewDayPrice(price decimal.Decimal, timestamp int64) DayPrice {
	return DayPrice{Price: price, Timestamp: timestamp}
}

func (p DayPrice) Time() time.Time {
	return time.Unix(p.Timestamp, 0).UTC()
}
