package engine

import (
	"cryptogains/types"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var ErrYearNotCovered = errors.New("year not covered by this run")

// yearlySummaries holds one accumulator per covered year.
type yearlySummaries struct {
	years map[int]*types.YearlySummary
}

func newYearlySummaries(first, last int) *yearlySummaries {
	years := make(map[int]*types.YearlySummary, last-first+1)
	for y := first; y <= last; y++ {
		years[y] = types.NewYearlySummary(y)
	}
	return &yearlySummaries{years: years}
}

func (s *yearlySummaries) get(year int) (*types.YearlySummary, error) {
	summary, ok := s.years[year]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrYearNotCovered, year)
	}
	return summary, nil
}

func (s *yearlySummaries) covers(year int) bool {
	_, ok := s.years[year]
	return ok
}

func (s *yearlySummaries) addFee(year int, usd decimal.Decimal) error {
	summary, err := s.get(year)
	if err != nil {
		return err
	}
	summary.Fees = summary.Fees.Add(usd)
	return nil
}

func (s *yearlySummaries) addRebate(year int, usd decimal.Decimal) error {
	summary, err := s.get(year)
	if err != nil {
		return err
	}
	summary.Rebates = summary.Rebates.Add(usd)
	return nil
}

func (s *yearlySummaries) addBuy(year int, paid decimal.Decimal) error {
	summary, err := s.get(year)
	if err != nil {
		return err
	}
	summary.TotalBuys = summary.TotalBuys.Add(paid)
	return nil
}

// addSale books one disposal fragment: its proceeds into total sales and its
// gain into the bucket matching its holding period.
func (s *yearlySummaries) addSale(year int, proceeds, gain decimal.Decimal, term types.Term) error {
	summary, err := s.get(year)
	if err != nil {
		return err
	}
	summary.TotalSales = summary.TotalSales.Add(proceeds)
	if term == types.TermLong {
		summary.LongTermGains = summary.LongTermGains.Add(gain)
	} else {
		summary.ShortTermGains = summary.ShortTermGains.Add(gain)
	}
	return nil
}

// finalize returns a copy of every covered year, oldest first.
func (s *yearlySummaries) finalize() []types.YearlySummary {
	out := make([]types.YearlySummary, 0, len(s.years))
	for _, summary := range s.years {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
