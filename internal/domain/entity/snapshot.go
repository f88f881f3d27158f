package entity

import (
	"encoding/json"
	"time"
)

// RankSentinel substitutes a missing sales rank. It is larger than any
// realistic rank threshold, so "rank unknown" always fails the pre-filter.
const RankSentinel = 99999

// ProductSnapshot is a point-in-time read of one product in one market,
// normalized from the pricing API response. Immutable once constructed.
type ProductSnapshot struct {
	ProductID     string          `json:"product_id"`
	Market        Market          `json:"market"`
	ExternalRef   string          `json:"external_ref"`
	Title         string          `json:"title,omitempty"`
	Brand         string          `json:"brand,omitempty"`
	Price         int64           `json:"price"` // minor currency units
	Rank          int64           `json:"rank"`
	WeightKg      float64         `json:"weight_kg,omitempty"` // 0 means unknown
	VariationHash string          `json:"variation_hash,omitempty"`
	Hazmat        bool            `json:"hazmat"`
	BrandGated    bool            `json:"brand_gated"`
	TimeSeries    json.RawMessage `json:"time_series,omitempty"` // charting only, opaque to scoring
	FetchedAt     time.Time       `json:"fetched_at"`
}
