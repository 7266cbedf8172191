package engine

import (
	"cryptogains/types"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// lotPrecision is the number of decimal places the running consumed total is
// kept at while matching lots.
const lotPrecision = 8

var ErrLotUnderflow = errors.New("ran out of lots before covering amount")

// UnderflowError reports how much of a Consume target the open lots could not
// cover. It is a tolerated condition: the covered fragments are still valid.
type UnderflowError struct {
	Wanted  decimal.Decimal
	Covered decimal.Decimal
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("%s: wanted %s, covered %s", ErrLotUnderflow, e.Wanted, e.Covered)
}

func (e *UnderflowError) Unwrap() error {
	return ErrLotUnderflow
}

func (e *UnderflowError) Shortfall() decimal.Decimal {
	return e.Wanted.Sub(e.Covered)
}

// lotLedger is the FIFO queue of open lots, oldest first.
type lotLedger struct {
	lots []types.Lot
}

func newLotLedger() *lotLedger {
	return &lotLedger{}
}

func (l *lotLedger) Append(lot types.Lot) {
	l.lots = append(l.lots, lot)
}

// Consume removes amount from the front of the queue and returns the
// fragments that made it up, in FIFO order. The last lot touched is split
// when it overshoots; its residual stays at the front of the queue.
func (l *lotLedger) Consume(amount decimal.Decimal) ([]types.Lot, error) {
	if !amount.IsPositive() {
		return nil, nil
	}

	var fragments []types.Lot
	total := decimal.Zero

	for len(l.lots) > 0 {
		lot := l.lots[0]
		total = round8(total.Add(lot.Balance))

		switch total.Cmp(amount) {
		case 0:
			l.lots = l.lots[1:]
			return append(fragments, lot), nil
		case -1:
			l.lots = l.lots[1:]
			fragments = append(fragments, lot)
		default:
			overshoot := round8(total.Sub(amount))
			if overshoot.IsZero() {
				l.lots = l.lots[1:]
				return append(fragments, lot), nil
			}
			used, residual := splitLot(lot, overshoot)
			l.lots[0] = residual
			return append(fragments, used), nil
		}
	}

	return fragments, &UnderflowError{Wanted: amount, Covered: total}
}

// splitLot cuts overshoot off the lot. The two halves' balances and cost
// bases add back up to the original exactly.
func splitLot(lot types.Lot, overshoot decimal.Decimal) (used, residual types.Lot) {
	usedBalance := lot.Balance.Sub(overshoot)
	usedFraction := round8(usedBalance).Div(lot.Balance)
	costUsed := round8(lot.CostBasis.Mul(usedFraction))

	used = types.NewLot(lot.AcquisitionTime, usedBalance, costUsed)
	residual = types.NewLot(lot.AcquisitionTime, overshoot, lot.CostBasis.Sub(costUsed))
	return used, residual
}

// Lots returns a copy of the open lots, oldest first.
func (l *lotLedger) Lots() []types.Lot {
	out := make([]types.Lot, len(l.lots))
	copy(out, l.lots)
	return out
}

func (l *lotLedger) Len() int {
	return len(l.lots)
}

func (l *lotLedger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots {
		total = total.Add(lot.Balance)
	}
	return total
}

func (l *lotLedger) TotalCostBasis() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots {
		total = total.Add(lot.CostBasis)
	}
	return total
}

// round8 rounds half away from zero.
func round8(d decimal.Decimal) decimal.Decimal {
	return d.Round(lotPrecision)
}
