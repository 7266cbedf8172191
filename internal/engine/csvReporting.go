package engine

import (
	"context"
	"cryptogains/types"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var disposalHeader = []string{
	"Date",
	"Trade ID",
	"Order ID",
	"Crypto Sold",
	"USD Value Sold",
	"Crypto Acquire Date",
	"Cost Basis",
	"Long Term Gains/Loss",
	"Short Term Gains/Loss",
}

var summaryHeader = []string{
	"Year",
	"Fees",
	"Rebates",
	"Short Term Gains",
	"Long Term Gains",
	"Total Sales",
	"Total Buys",
}

var openLotsHeader = []string{
	"Acquire Date",
	"Balance",
	"Cost Basis",
}

// CSVReportWriter writes <year>.csv, summary.csv and open_lots.csv into dir.
type CSVReportWriter struct {
	dir string
}

func NewCSVReportWriter(dir string) (*CSVReportWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVReportWriter{dir: dir}, nil
}

func (w *CSVReportWriter) OpenYear(_ context.Context, year int) (DisposalWriter, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("%d.csv", year))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create disposals file: %w", err)
	}
	d, err := newCSVDisposalWriter(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return d, nil
}

func (w *CSVReportWriter) WriteSummaries(_ context.Context, summaries []types.YearlySummary) error {
	f, err := os.Create(filepath.Join(w.dir, "summary.csv"))
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	return writeAndClose(f, func(out io.Writer) error {
		return writeSummariesCSV(out, summaries)
	})
}

func (w *CSVReportWriter) WriteOpenLots(_ context.Context, lots []types.Lot) error {
	f, err := os.Create(filepath.Join(w.dir, "open_lots.csv"))
	if err != nil {
		return fmt.Errorf("create open lots file: %w", err)
	}
	return writeAndClose(f, func(out io.Writer) error {
		return writeOpenLotsCSV(out, lots)
	})
}

// writeAndClose runs write against wc and always closes it. A failed close
// fails the write.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	err := write(wc)
	if closeErr := wc.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close: %w", closeErr)
	}
	return err
}

// csvDisposalWriter streams one tax year's disposal rows.
type csvDisposalWriter struct {
	cw     *csv.Writer
	closer io.Closer
}

// newCSVDisposalWriter writes the header right away. closer may be nil.
func newCSVDisposalWriter(w io.Writer, closer io.Closer) (*csvDisposalWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(disposalHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &csvDisposalWriter{cw: cw, closer: closer}, nil
}

func (d *csvDisposalWriter) Write(_ context.Context, rec types.DisposalRecord) error {
	return writeDisposalRow(d.cw, rec)
}

func (d *csvDisposalWriter) Close(_ context.Context) error {
	d.cw.Flush()
	err := d.cw.Error()
	if d.closer != nil {
		if closeErr := d.closer.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Helper to convert a single disposal fragment into one CSV row.
func writeDisposalRow(cw *csv.Writer, d types.DisposalRecord) error {
	record := []string{
		formatTime(d.DisposalTime),
		d.TradeID,
		d.OrderID,
		d.QuantitySold.String(),
		d.USDProceeds.String(),
		formatTime(d.LotAcquisitionTime),
		d.LotCostBasis.String(),
		d.LongTermGain.String(),
		d.ShortTermGain.String(),
	}

	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// writeSummariesCSV writes one row per year to any io.Writer.
func writeSummariesCSV(w io.Writer, summaries []types.YearlySummary) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range summaries {
		record := []string{
			strconv.Itoa(s.Year),
			s.Fees.String(),
			s.Rebates.String(),
			s.ShortTermGains.String(),
			s.LongTermGains.String(),
			s.TotalSales.String(),
			s.TotalBuys.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeOpenLotsCSV(w io.Writer, lots []types.Lot) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(openLotsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, lot := range lots {
		record := []string{
			formatTime(lot.AcquisitionTime),
			lot.Balance.String(),
			lot.CostBasis.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
