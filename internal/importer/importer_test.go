package importer

import (
	"context"
	"cryptogains/types"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bitstampDoc = `{
  "data": {
    "pair": "BTC/USD",
    "ohlc": [
      {"high": "1", "timestamp": "1420156800", "volume": "1", "low": "1", "close": "1", "open": "315.21"},
      {"high": "1", "timestamp": "1420070400", "volume": "1", "low": "1", "close": "1", "open": "320.00"}
    ]
  }
}`

func TestDecodePrices_Bitstamp(t *testing.T) {
	prices, err := DecodePrices(strings.NewReader(bitstampDoc), DefaultPricesPath)
	require.NoError(t, err)
	require.Len(t, prices, 2)

	assert.Equal(t, int64(1420156800), prices[0].Timestamp)
	assert.Equal(t, "315.21", prices[0].Price.String())
	assert.Equal(t, int64(1420070400), prices[1].Timestamp)
	assert.Equal(t, "320", prices[1].Price.String())
}

func TestDecodePrices_NumericFieldsAndCustomPath(t *testing.T) {
	doc := `{"series": [{"timestamp": 1577836800, "open": 7195.24}]}`

	prices, err := DecodePrices(strings.NewReader(doc), "$.series")
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.Equal(t, int64(1577836800), prices[0].Timestamp)
	assert.Equal(t, "7195.24", prices[0].Price.String())
}

func TestDecodePrices_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{name: "not json", doc: `{`, path: DefaultPricesPath},
		{name: "path missing", doc: `{"data": {}}`, path: DefaultPricesPath},
		{name: "not an array", doc: `{"data": {"ohlc": "x"}}`, path: DefaultPricesPath},
		{name: "bad timestamp", doc: `{"data": {"ohlc": [{"timestamp": "abc", "open": "1"}]}}`, path: DefaultPricesPath},
		{name: "missing open", doc: `{"data": {"ohlc": [{"timestamp": "1"}]}}`, path: DefaultPricesPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePrices(strings.NewReader(tt.doc), tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadPriceDocument))
		})
	}
}

func TestPriceDir_LoadYear(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2015.json"), []byte(bitstampDoc), 0o644))

	src := NewPriceDir(dir, "")
	prices, err := src.LoadYear(context.Background(), 2015)
	require.NoError(t, err)
	assert.Len(t, prices, 2)

	_, err = src.LoadYear(context.Background(), 2016)
	assert.Error(t, err)
}

const statement = `portfolio,type,time,amount,balance,amount/balance unit,transfer id,trade id,order id
default,deposit,2017-01-02T10:00:00.000Z,1.50000000,1.50000000,BTC,tx-1,,
default,match,2017-03-04T12:30:00.123Z,-0.40000000,1.10000000,BTC,,101,ord-1
default,match,2017-03-04T12:30:00.123Z,400.00,400.00,USD,,101,ord-1
default,Fee,2017-03-04T12:30:00.123Z,-1.20,398.80,USD,,101,ord-1
default,airdrop,2017-04-01T00:00:00Z,1,1,XYZ,,,
`

func TestTransactionReader_Next(t *testing.T) {
	r, err := NewTransactionReader(strings.NewReader(statement))
	require.NoError(t, err)

	var got []types.TransactionRecord
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, rec)
	}
	require.Len(t, got, 5)

	assert.Equal(t, types.ActionDeposit, got[0].Action)
	assert.Equal(t, "tx-1", got[0].TransferID)
	assert.Equal(t, "1.5", got[0].Amount.String())
	assert.Equal(t, "BTC", got[0].Unit)
	assert.True(t, got[0].Time.Equal(time.Date(2017, 1, 2, 10, 0, 0, 0, time.UTC)))

	assert.Equal(t, types.ActionMatch, got[1].Action)
	assert.Equal(t, "-0.4", got[1].Amount.String())
	assert.Equal(t, "101", got[1].TradeID)
	assert.Equal(t, "ord-1", got[1].OrderID)
	assert.Equal(t, 123*time.Millisecond, time.Duration(got[1].Time.Nanosecond()))

	assert.Equal(t, "USD", got[2].Unit)
	assert.Equal(t, types.ActionFee, got[3].Action)

	assert.Equal(t, types.ActionUnknown, got[4].Action)
	assert.Equal(t, "airdrop", got[4].RawAction)
}

func TestTransactionReader_ColumnsByName(t *testing.T) {
	doc := "amount/balance unit,amount,time,type\nBTC,0.1,2018-05-05T00:00:00Z,withdrawal\n"

	r, err := NewTransactionReader(strings.NewReader(doc))
	require.NoError(t, err)
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, types.ActionWithdrawal, rec.Action)
	assert.Equal(t, "0.1", rec.Amount.String())
	assert.True(t, rec.Balance.IsZero())
	assert.Equal(t, "", rec.TransferID)
}

func TestTransactionReader_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "bad time",
			doc:     "type,time,amount,amount/balance unit\nmatch,yesterday,1,BTC\n",
			wantErr: "line 2",
		},
		{
			name:    "bad amount",
			doc:     "type,time,amount,amount/balance unit\nmatch,2018-01-01T00:00:00Z,1,BTC\nmatch,2018-01-01T00:00:00Z,one,BTC\n",
			wantErr: "line 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewTransactionReader(strings.NewReader(tt.doc))
			require.NoError(t, err)

			for {
				_, err = r.Next()
				if err != nil {
					break
				}
			}
			require.False(t, errors.Is(err, io.EOF))
			assert.True(t, errors.Is(err, types.ErrMalformedRecord))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewTransactionReader_MissingColumn(t *testing.T) {
	_, err := NewTransactionReader(strings.NewReader("portfolio,type,time\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedRecord))
	assert.Contains(t, err.Error(), "amount")
}

func TestParseOverridesCSV(t *testing.T) {
	doc := `deposit,cost_basis,amount,date
tx-1,4500.25,1.5,2017-01-02T10:00:00Z
tx-2,100,0.01,2016-06-30
`
	overrides, err := ParseOverridesCSV(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, overrides, 2)

	assert.Equal(t, "tx-1", overrides[0].TransferID)
	assert.Equal(t, "4500.25", overrides[0].CostBasis.String())
	assert.Equal(t, "1.5", overrides[0].Amount.String())
	assert.True(t, overrides[0].Date.Equal(time.Date(2017, 1, 2, 10, 0, 0, 0, time.UTC)))

	assert.True(t, overrides[1].Date.Equal(time.Date(2016, 6, 30, 0, 0, 0, 0, time.UTC)))
}

func TestParseOverridesCSV_BadRow(t *testing.T) {
	doc := "deposit,cost_basis,amount,date\ntx-1,abc,1,2017-01-02\n"

	_, err := ParseOverridesCSV(strings.NewReader(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedRecord))
	assert.Contains(t, err.Error(), "cost_basis")
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	overrides, err := LoadOverrides(filepath.Join(t.TempDir(), "deposits.csv"))
	require.NoError(t, err)
	assert.Empty(t, overrides)
}
