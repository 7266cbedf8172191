package engine

import (
	"cryptogains/types"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var ErrPriceNotFound = errors.New("price not found")

// PriceIndex is an immutable, ascending series of reference prices.
type PriceIndex struct {
	prices []types.DayPrice
}

// NewPriceIndex merges the given series and sorts them by timestamp. The
// inputs are copied, so callers may reuse their slices.
func NewPriceIndex(series ...[]types.DayPrice) *PriceIndex {
	n := 0
	for _, s := range series {
		n += len(s)
	}
	merged := make([]types.DayPrice, 0, n)
	for _, s := range series {
		merged = append(merged, s...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Timestamp < merged[j].Timestamp })
	return &PriceIndex{prices: merged}
}

// Lookup returns the price of the first point strictly after t, not the
// nearest prior one.
func (p *PriceIndex) Lookup(t time.Time) (decimal.Decimal, error) {
	ts := t.Unix()
	i := sort.Search(len(p.prices), func(i int) bool { return p.prices[i].Timestamp > ts })
	if i == len(p.prices) {
		last := int64(0)
		if len(p.prices) > 0 {
			last = p.prices[len(p.prices)-1].Timestamp
		}
		return decimal.Zero, fmt.Errorf("%w: query %d (%s), last indexed %d", ErrPriceNotFound, ts, t.UTC().Format(time.RFC3339), last)
	}
	return p.prices[i].Price, nil
}

func (p *PriceIndex) Len() int {
	return len(p.prices)
}

func (p *PriceIndex) First() (types.DayPrice, bool) {
	if len(p.prices) == 0 {
		return types.DayPrice{}, false
	}
	return p.prices[0], true
}

func (p *PriceIndex) Last() (types.DayPrice, bool) {
	if len(p.prices) == 0 {
		return types.DayPrice{}, false
	}
	return p.prices[len(p.prices)-1], true
}
