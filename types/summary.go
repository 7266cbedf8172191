package types

import "github.com/shopspring/decimal"

type YearlySummary struct {
	Year           int             `json:"year"`
	Fees           decimal.Decimal `json:"fees"`
	Rebates        decimal.Decimal `json:"rebates"`
	ShortTermGains decimal.Decimal `json:"shortTermGains"`
	LongTermGains  decimal.Decimal `json:"longTermGains"`
	TotalSales     decimal.Decimal `json:"totalSales"`
	TotalBuys      decimal.Decimal `json:"totalBuys"`
}

func NewYearlySummary(year int) *YearlySummary {
	return &YearlySummary{
		Year:           year,
		Fees:           decimal.Zero,
		Rebates:        decimal.Zero,
		ShortTermGains: decimal.Zero,
		LongTermGains:  decimal.Zero,
		TotalSales:     decimal.Zero,
		TotalBuys:      decimal.Zero,
	}
}

func (s YearlySummary) NetGains() decimal.Decimal {
	return s.ShortTermGains.Add(s.LongTermGains)
}
