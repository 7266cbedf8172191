package importer

import (
	"cryptogains/types"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var requiredOverrideColumns = []string{"deposit", "cost_basis", "amount", "date"}

// LoadOverrides reads the optional deposit override file. A missing file is
// not an error and yields no overrides.
func LoadOverrides(path string) ([]types.Override, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open overrides: %w", err)
	}
	defer f.Close()

	return ParseOverridesCSV(f)
}

// ParseOverridesCSV parses rows of deposit, cost_basis, amount, date.
func ParseOverridesCSV(r io.Reader) ([]types.Override, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexHeader(header)
	for _, name := range requiredOverrideColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", types.ErrMalformedRecord, name)
		}
	}

	var overrides []types.Override
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", types.ErrMalformedRecord, line, err)
		}

		costBasis, err := decimal.NewFromString(strings.TrimSpace(record[cols["cost_basis"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: cost_basis: %w", types.ErrMalformedRecord, line, err)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(record[cols["amount"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: amount: %w", types.ErrMalformedRecord, line, err)
		}
		date, err := parseOverrideDate(strings.TrimSpace(record[cols["date"]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: date: %w", types.ErrMalformedRecord, line, err)
		}

		overrides = append(overrides, types.Override{
			TransferID: strings.TrimSpace(record[cols["deposit"]]),
			Date:       date,
			Amount:     amount,
			CostBasis:  costBasis,
		})
	}

	return overrides, nil
}

// parseOverrideDate accepts RFC3339 or a bare UTC date.
func parseOverrideDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
