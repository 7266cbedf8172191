package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// LongTermThreshold is 365 days. A disposal held strictly longer is long-term.
const LongTermThreshold = 31_536_000 * time.Second

var ErrInvalidYearRange = errors.New("invalid tax year range")

type AssetConfig struct {
	trackedUnit  string
	currencyUnit string
}

func NewAssetConfig(trackedUnit, currencyUnit string) *AssetConfig {
	return &AssetConfig{
		trackedUnit:  trackedUnit,
		currencyUnit: currencyUnit,
	}
}

type TaxYearConfig struct {
	firstYear         int
	lastYear          int
	longTermThreshold time.Duration
}

func NewTaxYearConfig(firstYear, lastYear int, longTermThreshold time.Duration) *TaxYearConfig {
	return &TaxYearConfig{
		firstYear:         firstYear,
		lastYear:          lastYear,
		longTermThreshold: longTermThreshold,
	}
}

func (c *TaxYearConfig) validate() error {
	if c.firstYear <= 0 || c.lastYear < c.firstYear {
		return fmt.Errorf("%w: %d..%d", ErrInvalidYearRange, c.firstYear, c.lastYear)
	}
	if c.longTermThreshold <= 0 {
		return fmt.Errorf("%w: long-term threshold %s", ErrInvalidYearRange, c.longTermThreshold)
	}
	return nil
}

func (c *TaxYearConfig) Years() []int {
	years := make([]int, 0, c.lastYear-c.firstYear+1)
	for y := c.firstYear; y <= c.lastYear; y++ {
		years = append(years, y)
	}
	return years
}

type ReportingConfig struct {
	showProgress   bool
	progressWriter io.Writer
}

func NewReportingConfig(showProgress bool) *ReportingConfig {
	return &ReportingConfig{
		showProgress:   showProgress,
		progressWriter: os.Stderr,
	}
}
