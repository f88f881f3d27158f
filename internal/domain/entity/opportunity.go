package entity

import (
	"time"

	"arbscan/internal/domain"
	"arbscan/pkg/errcodes"
)

type ScanMode string

const (
	ScanModeManual    ScanMode = "manual"
	ScanModeAutomatic ScanMode = "automatic"
)

func (m ScanMode) String() string {
	return string(m)
}

func ParseScanMode(s string) (ScanMode, error) {
	switch ScanMode(s) {
	case ScanModeManual, ScanModeAutomatic:
		return ScanMode(s), nil
	default:
		return "", domain.NewError(errcodes.InvalidScanMode, "unknown scan mode: "+s)
	}
}

type OpportunityStatus string

const (
	StatusShown    OpportunityStatus = "shown"
	StatusFiltered OpportunityStatus = "filtered"
	StatusNew      OpportunityStatus = "new"
)

// Opportunity is the persisted result of comparing two markets' snapshots for
// one product. At most one live record exists per (ProductID, Market, Mode);
// writes are upserts on that key.
type Opportunity struct {
	ProductID string            `json:"product_id"`
	Market    Market            `json:"market"` // target market
	Mode      ScanMode          `json:"mode"`
	Status    OpportunityStatus `json:"status"`

	// Denormalized snapshot fields, copied in at scan time.
	ExternalRef string `json:"external_ref,omitempty"`
	Title       string `json:"title,omitempty"`
	Brand       string `json:"brand,omitempty"`
	SourcePrice int64  `json:"source_price"`
	TargetPrice int64  `json:"target_price"`

	// Derived, recomputed on every scan.
	Fees             float64 `json:"fees"`
	ShippingEstimate float64 `json:"shipping_estimate"`
	RiskMultiplier   float64 `json:"risk_multiplier"`
	Score            float64 `json:"opportunity_score"`

	LastSeen time.Time `json:"last_seen"`
}
