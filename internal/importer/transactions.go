package importer

import (
	"cryptogains/types"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	colPortfolio  = "portfolio"
	colType       = "type"
	colTime       = "time"
	colAmount     = "amount"
	colBalance    = "balance"
	colUnit       = "amount/balance unit"
	colTransferID = "transfer id"
	colTradeID    = "trade id"
	colOrderID    = "order id"
)

var requiredTransactionColumns = []string{colType, colTime, colAmount, colUnit}

// TransactionReader decodes an account statement CSV one record at a time.
// Columns are found by header name, so their order does not matter.
type TransactionReader struct {
	r    *csv.Reader
	cols map[string]int
	line int
}

func NewTransactionReader(r io.Reader) (*TransactionReader, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty statement", types.ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)
	for _, name := range requiredTransactionColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", types.ErrMalformedRecord, name)
		}
	}
	return &TransactionReader{r: reader, cols: cols, line: 1}, nil
}

// Next returns the next record, or io.EOF after the last one.
func (t *TransactionReader) Next() (types.TransactionRecord, error) {
	record, err := t.r.Read()
	if errors.Is(err, io.EOF) {
		return types.TransactionRecord{}, io.EOF
	}
	t.line++
	if err != nil {
		return types.TransactionRecord{}, fmt.Errorf("%w: line %d: %w", types.ErrMalformedRecord, t.line, err)
	}
	rec, err := t.decode(record)
	if err != nil {
		return types.TransactionRecord{}, fmt.Errorf("%w: line %d: %w", types.ErrMalformedRecord, t.line, err)
	}
	return rec, nil
}

func (t *TransactionReader) decode(record []string) (types.TransactionRecord, error) {
	rawAction := t.field(record, colType)
	ts, err := time.Parse(time.RFC3339Nano, t.field(record, colTime))
	if err != nil {
		return types.TransactionRecord{}, fmt.Errorf("time: %w", err)
	}
	amount, err := decimal.NewFromString(t.field(record, colAmount))
	if err != nil {
		return types.TransactionRecord{}, fmt.Errorf("amount: %w", err)
	}
	balance := decimal.Zero
	if s := t.field(record, colBalance); s != "" {
		balance, err = decimal.NewFromString(s)
		if err != nil {
			return types.TransactionRecord{}, fmt.Errorf("balance: %w", err)
		}
	}

	return types.TransactionRecord{
		Portfolio:  t.field(record, colPortfolio),
		Action:     types.ParseAction(rawAction),
		RawAction:  rawAction,
		Time:       ts,
		Amount:     amount,
		Balance:    balance,
		Unit:       t.field(record, colUnit),
		TransferID: t.field(record, colTransferID),
		TradeID:    t.field(record, colTradeID),
		OrderID:    t.field(record, colOrderID),
	}, nil
}

// field returns the trimmed value of a named column, or "" when the column
// is absent or the row is short.
func (t *TransactionReader) field(record []string, name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := cols[name]; !ok {
			cols[name] = i
		}
	}
	return cols
}
