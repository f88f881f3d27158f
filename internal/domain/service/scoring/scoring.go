// Package scoring computes the risk-adjusted opportunity score for a pair of
// market snapshots. Pure functions, no I/O; all prices are in minor currency
// units.
package scoring

import (
	"arbscan/internal/domain/entity"
)

const (
	// Referral share of the target price plus a flat fulfillment fee.
	feeRate = 0.15
	flatFee = 300

	// Cross-market shipping estimate.
	perKgRate       = 500
	defaultWeightKg = 1.0

	// Risk discounts. Cumulative: every applicable penalty multiplies in.
	penaltyTitleOnlyMatch = 0.7
	penaltyVariation      = 0.5
	penaltyBrandGate      = 0.3
)

// Breakdown carries the score together with its components, so the
// orchestrator can persist all of them without recomputing.
type Breakdown struct {
	Fees             float64
	ShippingEstimate float64
	RiskMultiplier   float64
	Score            float64
}

// Fees models referral plus fulfillment cost in the target market.
func Fees(target entity.ProductSnapshot) float64 {
	return float64(target.Price)*feeRate + flatFee
}

// ShippingEstimate prices the source→target shipment by weight. Unknown
// weight defaults to 1kg.
func ShippingEstimate(source entity.ProductSnapshot, _ entity.ProductSnapshot) float64 {
	weightKg := source.WeightKg
	if weightKg <= 0 {
		weightKg = defaultWeightKg
	}

	return weightKg * perKgRate
}

// RiskMultiplier returns the [0,1] discount applied to the raw margin.
// Hazardous products are excluded outright with a multiplier of zero; the
// orchestrator treats the resulting zero score as "filtered", not an error.
func RiskMultiplier(source, target entity.ProductSnapshot) float64 {
	if source.Hazmat || target.Hazmat {
		return 0
	}

	multiplier := 1.0

	// Identifier mismatch with a plausible title match: partial trust only.
	if source.ProductID != target.ProductID && source.Title == target.Title {
		multiplier *= penaltyTitleOnlyMatch
	}

	if source.VariationHash != target.VariationHash {
		multiplier *= penaltyVariation
	}

	if target.BrandGated {
		multiplier *= penaltyBrandGate
	}

	return multiplier
}

// Score computes the full breakdown. Negative scores are valid output and
// signal a loss-making pair.
func Score(source, target entity.ProductSnapshot) Breakdown {
	fees := Fees(target)
	shipping := ShippingEstimate(source, target)
	multiplier := RiskMultiplier(source, target)

	margin := float64(target.Price-source.Price) - fees - shipping

	return Breakdown{
		Fees:             fees,
		ShippingEstimate: shipping,
		RiskMultiplier:   multiplier,
		Score:            margin * multiplier,
	}
}
