package engine

import (
	"context"
	"cryptogains/types"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrUnrecognizedAction = errors.New("unrecognized action")
	ErrOutOfOrder         = errors.New("transaction out of time order")
	ErrMissingCounterLeg  = fmt.Errorf("match has no counter leg: %w", types.ErrMalformedRecord)
	ErrCounterLegUnit     = fmt.Errorf("match counter leg is not in the currency unit: %w", types.ErrMalformedRecord)
	ErrCounterLegAction   = fmt.Errorf("match counter leg is not a match: %w", types.ErrMalformedRecord)
	ErrCounterLegTrade    = fmt.Errorf("match counter leg belongs to another trade: %w", types.ErrMalformedRecord)
)

// processor is the single-pass state machine over the transaction stream. It
// owns the lot ledger and the yearly accumulators for the whole run.
type processor struct {
	assets    *AssetConfig
	taxYears  *TaxYearConfig
	ledger    *lotLedger
	prices    *PriceIndex
	overrides *OverrideResolver
	summaries *yearlySummaries
	reports   ReportWriter
	log       zerolog.Logger

	curYear  int
	sink     DisposalWriter
	lastTime time.Time

	records    int
	disposals  int
	underflows int
}

func newProcessor(assets *AssetConfig, taxYears *TaxYearConfig, prices *PriceIndex, overrides *OverrideResolver, reports ReportWriter, log zerolog.Logger) *processor {
	return &processor{
		assets:    assets,
		taxYears:  taxYears,
		ledger:    newLotLedger(),
		prices:    prices,
		overrides: overrides,
		summaries: newYearlySummaries(taxYears.firstYear, taxYears.lastYear),
		reports:   reports,
		log:       log,
	}
}

// run drains src. tick is called once per record consumed, counter legs
// included.
func (p *processor) run(ctx context.Context, src TransactionSource, tick func()) (err error) {
	defer func() {
		if closeErr := p.closeSink(ctx); err == nil {
			err = closeErr
		}
	}()

	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		tick()

		if err := p.advance(ctx, rec); err != nil {
			return err
		}
		if err := p.process(ctx, src, rec, tick); err != nil {
			return err
		}
	}
}

// advance checks ordering and rolls the disposal sink over when the record
// starts a new tax year. Records outside the covered years open no sink; they
// only fail later if they have to be booked into a summary.
func (p *processor) advance(ctx context.Context, rec types.TransactionRecord) error {
	if err := p.checkOrder(rec); err != nil {
		return err
	}
	year := rec.Year()
	if !p.summaries.covers(year) {
		return nil
	}
	if p.sink != nil && year == p.curYear {
		return nil
	}
	if err := p.closeSink(ctx); err != nil {
		return err
	}
	sink, err := p.reports.OpenYear(ctx, year)
	if err != nil {
		return fmt.Errorf("open disposals for %d: %w", year, err)
	}
	p.log.Debug().Int("year", year).Msg("Opened tax year")
	p.sink = sink
	p.curYear = year
	return nil
}

func (p *processor) checkOrder(rec types.TransactionRecord) error {
	if !p.lastTime.IsZero() && rec.Time.Before(p.lastTime) {
		return fmt.Errorf("%w: %s after %s", ErrOutOfOrder, rec.Time.Format(time.RFC3339), p.lastTime.Format(time.RFC3339))
	}
	p.lastTime = rec.Time
	p.records++
	return nil
}

func (p *processor) closeSink(ctx context.Context) error {
	if p.sink == nil {
		return nil
	}
	sink := p.sink
	p.sink = nil
	if err := sink.Close(ctx); err != nil {
		return fmt.Errorf("close disposals for %d: %w", p.curYear, err)
	}
	return nil
}

func (p *processor) process(ctx context.Context, src TransactionSource, rec types.TransactionRecord, tick func()) error {
	switch rec.Action {
	case types.ActionDeposit:
		return p.deposit(rec)
	case types.ActionMatch:
		if rec.Unit != p.assets.trackedUnit {
			return nil
		}
		counter, err := p.pairCounterLeg(src, rec)
		if err != nil {
			return err
		}
		tick()
		if rec.Amount.IsNegative() {
			return p.sell(ctx, rec, counter)
		}
		return p.buy(rec, counter)
	case types.ActionWithdrawal:
		if rec.Unit != p.assets.trackedUnit {
			return nil
		}
		_, err := p.consume(rec.Amount.Neg(), rec)
		return err
	case types.ActionFee:
		usd, ok, err := p.toUSD(rec)
		if err != nil || !ok {
			return err
		}
		return p.book(rec, p.summaries.addFee(rec.Year(), usd))
	case types.ActionRebate:
		usd, ok, err := p.toUSD(rec)
		if err != nil || !ok {
			return err
		}
		return p.book(rec, p.summaries.addRebate(rec.Year(), usd))
	case types.ActionConversion:
		return nil
	default:
		return fmt.Errorf("%w: %q at %s", ErrUnrecognizedAction, rec.RawAction, rec.Time.Format(time.RFC3339))
	}
}

// pairCounterLeg reads the record right after a match: the currency leg of
// the same trade.
func (p *processor) pairCounterLeg(src TransactionSource, rec types.TransactionRecord) (types.TransactionRecord, error) {
	counter, err := src.Next()
	if errors.Is(err, io.EOF) {
		return types.TransactionRecord{}, fmt.Errorf("%w: trade %s", ErrMissingCounterLeg, rec.TradeID)
	}
	if err != nil {
		return types.TransactionRecord{}, err
	}
	if counter.Action != types.ActionMatch {
		return types.TransactionRecord{}, fmt.Errorf("%w: trade %s is followed by %q", ErrCounterLegAction, rec.TradeID, counter.RawAction)
	}
	if counter.Unit != p.assets.currencyUnit {
		return types.TransactionRecord{}, fmt.Errorf("%w: trade %s has %s leg", ErrCounterLegUnit, rec.TradeID, counter.Unit)
	}
	if rec.TradeID != "" && counter.TradeID != "" && rec.TradeID != counter.TradeID {
		return types.TransactionRecord{}, fmt.Errorf("%w: trade %s paired with trade %s", ErrCounterLegTrade, rec.TradeID, counter.TradeID)
	}
	if err := p.checkOrder(counter); err != nil {
		return types.TransactionRecord{}, err
	}
	return counter, nil
}

func (p *processor) deposit(rec types.TransactionRecord) error {
	if rec.Unit != p.assets.trackedUnit {
		return nil
	}
	if lot, ok := p.overrides.Lookup(rec.TransferID); ok {
		p.log.Debug().
			Str("transfer_id", rec.TransferID).
			Str("balance", lot.Balance.String()).
			Str("cost_basis", lot.CostBasis.String()).
			Msg("Deposit cost basis override")
		p.ledger.Append(lot)
		return nil
	}
	price, err := p.prices.Lookup(rec.Time)
	if err != nil {
		return fmt.Errorf("deposit %s: %w", rec.TransferID, err)
	}
	p.ledger.Append(types.NewLot(rec.Time, rec.Amount, price.Mul(rec.Amount)))
	return nil
}

func (p *processor) buy(rec, counter types.TransactionRecord) error {
	paid := counter.Amount.Neg()
	if err := p.book(rec, p.summaries.addBuy(rec.Year(), paid)); err != nil {
		return err
	}
	p.ledger.Append(types.NewLot(rec.Time, rec.Amount, paid))
	return nil
}

func (p *processor) sell(ctx context.Context, rec, counter types.TransactionRecord) error {
	rawAmount := rec.Amount.Neg()
	usdEarned := counter.Amount

	fragments, err := p.consume(rawAmount, rec)
	if err != nil {
		return err
	}

	for _, lot := range fragments {
		proceeds := usdEarned.Mul(lot.Balance).Div(rawAmount)
		gain := proceeds.Sub(lot.CostBasis)
		term := p.holdingTerm(rec.Time, lot.AcquisitionTime)

		d := types.DisposalRecord{
			DisposalTime:       rec.Time,
			TradeID:            rec.TradeID,
			OrderID:            rec.OrderID,
			TransferID:         rec.TransferID,
			QuantitySold:       lot.Balance,
			USDProceeds:        proceeds,
			LotAcquisitionTime: lot.AcquisitionTime,
			LotCostBasis:       lot.CostBasis,
			Term:               term,
			LongTermGain:       decimal.Zero,
			ShortTermGain:      decimal.Zero,
		}
		if term == types.TermLong {
			d.LongTermGain = gain
		} else {
			d.ShortTermGain = gain
		}

		if err := p.book(rec, p.summaries.addSale(rec.Year(), proceeds, gain, term)); err != nil {
			return err
		}
		if err := p.sink.Write(ctx, d); err != nil {
			return fmt.Errorf("write disposal for trade %s: %w", rec.TradeID, err)
		}
		p.disposals++
	}
	return nil
}

// consume takes amount off the ledger. Running out of lots is logged and
// tolerated; the fragments that were found are still returned.
func (p *processor) consume(amount decimal.Decimal, rec types.TransactionRecord) ([]types.Lot, error) {
	fragments, err := p.ledger.Consume(amount)
	var underflow *UnderflowError
	if errors.As(err, &underflow) {
		p.underflows++
		p.log.Warn().
			Err(err).
			Str("action", string(rec.Action)).
			Str("trade_id", rec.TradeID).
			Str("transfer_id", rec.TransferID).
			Str("wanted", underflow.Wanted.String()).
			Str("covered", underflow.Covered.String()).
			Msg("Ran out of lots, using cost basis of the covered amount")
		return fragments, nil
	}
	return fragments, err
}

// book tags a failed summary update with the record that caused it.
func (p *processor) book(rec types.TransactionRecord, err error) error {
	if err != nil {
		return fmt.Errorf("%s at %s: %w", rec.Action, rec.Time.Format(time.RFC3339), err)
	}
	return nil
}

func (p *processor) holdingTerm(sold, acquired time.Time) types.Term {
	held := sold.Unix() - acquired.Unix()
	if held > int64(p.taxYears.longTermThreshold/time.Second) {
		return types.TermLong
	}
	return types.TermShort
}

// toUSD values a fee or rebate. ok is false for units that are neither the
// currency nor the tracked asset.
func (p *processor) toUSD(rec types.TransactionRecord) (usd decimal.Decimal, ok bool, err error) {
	switch rec.Unit {
	case p.assets.currencyUnit:
		return rec.Amount, true, nil
	case p.assets.trackedUnit:
		price, err := p.prices.Lookup(rec.Time)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("%s %s: %w", rec.Action, rec.Time.Format(time.RFC3339), err)
		}
		return price.Mul(rec.Amount), true, nil
	default:
		return decimal.Zero, false, nil
	}
}
