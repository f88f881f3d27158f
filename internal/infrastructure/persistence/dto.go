package persistence

import (
	"encoding/json"
	"time"

	"arbscan/internal/domain/entity"
)

// opportunitySchema maps a row of the opportunities table.
type opportunitySchema struct {
	ProductID        string    `db:"product_id"`
	Market           string    `db:"market"`
	Mode             string    `db:"mode"`
	Status           string    `db:"status"`
	ExternalRef      string    `db:"external_ref"`
	Title            string    `db:"title"`
	Brand            string    `db:"brand"`
	SourcePrice      int64     `db:"source_price"`
	TargetPrice      int64     `db:"target_price"`
	Fees             float64   `db:"fees"`
	ShippingEstimate float64   `db:"shipping_estimate"`
	RiskMultiplier   float64   `db:"risk_multiplier"`
	Score            float64   `db:"score"`
	LastSeen         time.Time `db:"last_seen"`
}

func fromOpportunity(e *entity.Opportunity) *opportunitySchema {
	return &opportunitySchema{
		ProductID:        e.ProductID,
		Market:           string(e.Market),
		Mode:             string(e.Mode),
		Status:           string(e.Status),
		ExternalRef:      e.ExternalRef,
		Title:            e.Title,
		Brand:            e.Brand,
		SourcePrice:      e.SourcePrice,
		TargetPrice:      e.TargetPrice,
		Fees:             e.Fees,
		ShippingEstimate: e.ShippingEstimate,
		RiskMultiplier:   e.RiskMultiplier,
		Score:            e.Score,
		LastSeen:         e.LastSeen,
	}
}

func (s *opportunitySchema) toDomain() *entity.Opportunity {
	return &entity.Opportunity{
		ProductID:        s.ProductID,
		Market:           entity.Market(s.Market),
		Mode:             entity.ScanMode(s.Mode),
		Status:           entity.OpportunityStatus(s.Status),
		ExternalRef:      s.ExternalRef,
		Title:            s.Title,
		Brand:            s.Brand,
		SourcePrice:      s.SourcePrice,
		TargetPrice:      s.TargetPrice,
		Fees:             s.Fees,
		ShippingEstimate: s.ShippingEstimate,
		RiskMultiplier:   s.RiskMultiplier,
		Score:            s.Score,
		LastSeen:         s.LastSeen,
	}
}

// productSchema maps a row of the products table.
type productSchema struct {
	ProductID   string    `db:"product_id"`
	Market      string    `db:"market"`
	ExternalRef string    `db:"external_ref"`
	Category    string    `db:"category"`
	Title       string    `db:"title"`
	Brand       string    `db:"brand"`
	Price       int64     `db:"price"`
	Rank        int64     `db:"rank"`
	WeightKg    float64   `db:"weight_kg"`
	Hazmat      bool      `db:"hazmat"`
	BrandGated  bool      `db:"brand_gated"`
	TimeSeries  []byte    `db:"time_series"`
	FetchedAt   time.Time `db:"fetched_at"`
}

func (s *productSchema) toDomain() *entity.ProductSnapshot {
	return &entity.ProductSnapshot{
		ProductID:   s.ProductID,
		Market:      entity.Market(s.Market),
		ExternalRef: s.ExternalRef,
		Title:       s.Title,
		Brand:       s.Brand,
		Price:       s.Price,
		Rank:        s.Rank,
		WeightKg:    s.WeightKg,
		Hazmat:      s.Hazmat,
		BrandGated:  s.BrandGated,
		TimeSeries:  json.RawMessage(s.TimeSeries),
		FetchedAt:   s.FetchedAt,
	}
}

// scheduleSchema maps a row of the schedules table.
type scheduleSchema struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	Category  string     `db:"category"`
	CronExpr  string     `db:"cron_expr"`
	Status    string     `db:"status"`
	LastRun   *time.Time `db:"last_run"`
	CreatedAt time.Time  `db:"created_at"`
}

func (s *scheduleSchema) toDomain() *entity.Schedule {
	return &entity.Schedule{
		ID:        s.ID,
		Name:      s.Name,
		Category:  s.Category,
		CronExpr:  s.CronExpr,
		Status:    entity.ScheduleStatus(s.Status),
		LastRun:   s.LastRun,
		CreatedAt: s.CreatedAt,
	}
}
