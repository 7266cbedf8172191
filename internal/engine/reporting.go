package engine

import (
	"fmt"
	"io"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// WriteSummaryReport prints the per-year totals of a run, formatted in
// currencyUnit, followed by the lots still open at the end of the stream.
func WriteSummaryReport(w io.Writer, result *Result, currencyUnit string) {
	fmt.Fprintln(w, "===== Capital Gains Report =====")
	fmt.Fprintf(w, "Records:               %d\n", result.Records)
	fmt.Fprintf(w, "Disposals:             %d\n", result.Disposals)
	fmt.Fprintf(w, "Lot Underflows:        %d\n", result.Underflows)

	for _, s := range result.Summaries {
		fmt.Fprintf(w, "\n-- %d --\n", s.Year)
		fmt.Fprintf(w, "Total Buys:            %s\n", formatMoney(s.TotalBuys, currencyUnit))
		fmt.Fprintf(w, "Total Sales:           %s\n", formatMoney(s.TotalSales, currencyUnit))
		fmt.Fprintf(w, "Short Term Gains:      %s\n", formatMoney(s.ShortTermGains, currencyUnit))
		fmt.Fprintf(w, "Long Term Gains:       %s\n", formatMoney(s.LongTermGains, currencyUnit))
		fmt.Fprintf(w, "Fees:                  %s\n", formatMoney(s.Fees, currencyUnit))
		fmt.Fprintf(w, "Rebates:               %s\n", formatMoney(s.Rebates, currencyUnit))
		fmt.Fprintf(w, "Net Gains:             %s\n", formatMoney(s.NetGains(), currencyUnit))
	}

	balance, basis := decimal.Zero, decimal.Zero
	for _, lot := range result.OpenLots {
		balance = balance.Add(lot.Balance)
		basis = basis.Add(lot.CostBasis)
	}
	fmt.Fprintln(w, "\n-- Open Lots --")
	fmt.Fprintf(w, "Lots:                  %d\n", len(result.OpenLots))
	fmt.Fprintf(w, "Balance:               %s\n", balance)
	fmt.Fprintf(w, "Cost Basis:            %s\n", formatMoney(basis, currencyUnit))

	fmt.Fprintln(w, "================================")
}

// formatMoney rounds amount to the currency's minor unit and formats it.
func formatMoney(amount decimal.Decimal, currencyUnit string) string {
	cur := money.GetCurrency(currencyUnit)
	if cur == nil {
		return amount.StringFixed(2) + " " + currencyUnit
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
