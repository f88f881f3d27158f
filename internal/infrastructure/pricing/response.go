package pricing

import (
	stdjson "encoding/json"
	"time"

	"arbscan/internal/domain/entity"
)

// apiResponse mirrors the top-level pricing API JSON response.
type apiResponse struct {
	Products []apiProduct `json:"products"`
}

// apiProduct mirrors a single product record. Absent numeric fields decode to
// zero and are normalized below.
type apiProduct struct {
	UPC         string          `json:"upc"`
	ASIN        string          `json:"asin"`
	Title       string          `json:"title"`
	Brand       string          `json:"brand"`
	BuyBoxPrice int64           `json:"buyBoxPrice"` // minor currency units
	SalesRanks  []int64         `json:"salesRanks"`
	WeightKg    float64         `json:"weightKg"`
	Variation   stdjson.RawMessage `json:"variation"`
	Hazmat      bool            `json:"hazmat"`
	BrandGated  bool            `json:"brandGated"`
	CSV         stdjson.RawMessage `json:"csv"` // historical price/rank series, charting only
}

// toSnapshot normalizes one API product into the canonical snapshot shape.
// A missing rank becomes the sentinel so rank gates treat it as worst-case;
// the variation payload is kept opaque as the matching signature.
func (p apiProduct) toSnapshot(productID string, market entity.Market, now time.Time) *entity.ProductSnapshot {
	rank := int64(entity.RankSentinel)
	if len(p.SalesRanks) > 0 {
		rank = p.SalesRanks[0]
	}

	var variationHash string
	if len(p.Variation) > 0 {
		variationHash = string(p.Variation)
	}

	// The requested identifier keys the snapshot; the record's own UPC only
	// fills in for batch responses, where there is no single requested id.
	id := productID
	if id == "" {
		id = p.UPC
	}

	return &entity.ProductSnapshot{
		ProductID:     id,
		Market:        market,
		ExternalRef:   p.ASIN,
		Title:         p.Title,
		Brand:         p.Brand,
		Price:         p.BuyBoxPrice,
		Rank:          rank,
		WeightKg:      p.WeightKg,
		VariationHash: variationHash,
		Hazmat:        p.Hazmat,
		BrandGated:    p.BrandGated,
		TimeSeries:    p.CSV,
		FetchedAt:     now,
	}
}
