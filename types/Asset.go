package types

import (
	"time"
)

type AssetType string

const (
	AssetTypeCrypto AssetType = "CRYPTO"
	AssetTypeFiat   AssetType = "FIAT"
)

// Asset is the tracked unit as stored in the price database.
type Asset struct {
	Id         int       `json:"id"`
	Ticker     string    `json:"ticker"`
	Name       string    `json:"name"`
	Type       AssetType `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// PriceRange is the half-open [Start, End) window a price series covers.
type PriceRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func YearRange(year int) PriceRange {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return PriceRange{Start: start, End: start.AddDate(1, 0, 0)}
}
