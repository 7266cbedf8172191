package importer

import (
	"context"
	"cryptogains/types"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// DefaultPricesPath locates the OHLC array of a Bitstamp price document.
const DefaultPricesPath = "$.data.ohlc"

var ErrBadPriceDocument = errors.New("bad price document")

// PriceDir reads one <year>.json document per tax year from a directory.
type PriceDir struct {
	dir      string
	jsonPath string
}

func NewPriceDir(dir, jsonPath string) *PriceDir {
	if jsonPath == "" {
		jsonPath = DefaultPricesPath
	}
	return &PriceDir{dir: dir, jsonPath: jsonPath}
}

func (p *PriceDir) LoadYear(_ context.Context, year int) ([]types.DayPrice, error) {
	path := filepath.Join(p.dir, fmt.Sprintf("%d.json", year))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price document: %w", err)
	}
	defer f.Close()

	prices, err := DecodePrices(f, p.jsonPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prices, nil
}

// DecodePrices reads a JSON document and returns the {timestamp, open} points
// found at jsonPath. Both fields may be numbers or numeric strings.
func DecodePrices(r io.Reader, jsonPath string) ([]types.DayPrice, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPriceDocument, err)
	}
	jval, err := jsonpath.Get(jsonPath, jobj)
	if err != nil {
		return nil, fmt.Errorf("%w: path %q: %w", ErrBadPriceDocument, jsonPath, err)
	}
	// a wildcard or filter path may wrap the array in a list of one answer
	points, ok := jval.([]any)
	if ok && len(points) == 1 {
		if inner, isList := points[0].([]any); isList {
			points = inner
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: path %q is not an array", ErrBadPriceDocument, jsonPath)
	}

	prices := make([]types.DayPrice, 0, len(points))
	for i, point := range points {
		obj, ok := point.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: point %d is not an object", ErrBadPriceDocument, i)
		}
		ts, err := jsonInt(obj["timestamp"])
		if err != nil {
			return nil, fmt.Errorf("%w: point %d timestamp: %w", ErrBadPriceDocument, i, err)
		}
		open, err := jsonDecimal(obj["open"])
		if err != nil {
			return nil, fmt.Errorf("%w: point %d open: %w", ErrBadPriceDocument, i, err)
		}
		prices = append(prices, types.NewDayPrice(open, ts))
	}
	return prices, nil
}

func jsonInt(v any) (int64, error) {
	switch x := v.(type) {
	case string:
		return strconv.ParseInt(x, 10, 64)
	case float64:
		return int64(x), nil
	case nil:
		return 0, errors.New("missing")
	default:
		return 0, fmt.Errorf("unexpected %T", v)
	}
}

func jsonDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case string:
		return decimal.NewFromString(x)
	case float64:
		return decimal.NewFromFloat(x), nil
	case nil:
		return decimal.Zero, errors.New("missing")
	default:
		return decimal.Zero, fmt.Errorf("unexpected %T", v)
	}
}
