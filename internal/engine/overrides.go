package engine

import (
	"cryptogains/types"
)

// OverrideResolver answers manual cost-basis overrides for deposits. The zero
// value and a nil resolver both answer "no override" for every key.
type OverrideResolver struct {
	byTransfer map[string]types.Lot
}

// NewOverrideResolver indexes the rows by transfer id. When an id repeats the
// first row wins.
func NewOverrideResolver(rows []types.Override) *OverrideResolver {
	byTransfer := make(map[string]types.Lot, len(rows))
	for _, row := range rows {
		if _, ok := byTransfer[row.TransferID]; ok {
			continue
		}
		byTransfer[row.TransferID] = row.Lot()
	}
	return &OverrideResolver{byTransfer: byTransfer}
}

func (r *OverrideResolver) Lookup(transferID string) (types.Lot, bool) {
	if r == nil || r.byTransfer == nil {
		return types.Lot{}, false
	}
	lot, ok := r.byTransfer[transferID]
	return lot, ok
}

func (r *OverrideResolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byTransfer)
}
