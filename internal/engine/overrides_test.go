package engine

import (
	"cryptogains/types"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOverrideResolver_Lookup(t *testing.T) {
	date := time.Date(2016, 5, 1, 0, 0, 0, 0, time.UTC)
	resolver := NewOverrideResolver([]types.Override{
		{TransferID: "tx-1", Date: date, Amount: decimal.RequireFromString("2"), CostBasis: decimal.RequireFromString("900")},
		{TransferID: "tx-1", Date: date, Amount: decimal.RequireFromString("3"), CostBasis: decimal.RequireFromString("1")},
		{TransferID: "tx-2", Date: date, Amount: decimal.RequireFromString("0.5"), CostBasis: decimal.RequireFromString("200")},
	})

	tests := []struct {
		name     string
		resolver *OverrideResolver
		id       string
		wantOK   bool
		wantLot  types.Lot
	}{
		{"first row wins on duplicate ids", resolver, "tx-1", true, types.NewLot(date, decimal.RequireFromString("2"), decimal.RequireFromString("900"))},
		{"second id", resolver, "tx-2", true, types.NewLot(date, decimal.RequireFromString("0.5"), decimal.RequireFromString("200"))},
		{"unknown id", resolver, "tx-3", false, types.Lot{}},
		{"nil resolver", nil, "tx-1", false, types.Lot{}},
		{"empty table", NewOverrideResolver(nil), "tx-1", false, types.Lot{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.resolver.Lookup(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("Lookup() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			assertLots(t, "override", []types.Lot{got}, []types.Lot{tt.wantLot})
		})
	}

	if resolver.Len() != 2 {
		t.Errorf("Len() = %d, want 2", resolver.Len())
	}
}
