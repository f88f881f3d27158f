package server

import (
	"time"

	"arbscan/internal/domain/entity"
	"arbscan/pkg/rest"
)

func newRESTOpportunity(opportunity *entity.Opportunity) *rest.Opportunity {
	if opportunity == nil {
		return nil
	}

	return &rest.Opportunity{
		ProductID:        opportunity.ProductID,
		Market:           opportunity.Market.String(),
		Mode:             opportunity.Mode.String(),
		Status:           string(opportunity.Status),
		ExternalRef:      opportunity.ExternalRef,
		Title:            opportunity.Title,
		Brand:            opportunity.Brand,
		SourcePrice:      opportunity.SourcePrice,
		TargetPrice:      opportunity.TargetPrice,
		Fees:             opportunity.Fees,
		ShippingEstimate: opportunity.ShippingEstimate,
		RiskMultiplier:   opportunity.RiskMultiplier,
		Score:            opportunity.Score,
		LastSeen:         opportunity.LastSeen.UTC().Format(time.RFC3339),
	}
}

func newRESTSchedule(schedule *entity.Schedule) rest.Schedule {
	out := rest.Schedule{
		ID:        schedule.ID,
		Name:      schedule.Name,
		Category:  schedule.Category,
		CronExpr:  schedule.CronExpr,
		Status:    string(schedule.Status),
		CreatedAt: schedule.CreatedAt.UTC().Format(time.RFC3339),
	}

	if schedule.LastRun != nil {
		lastRun := schedule.LastRun.UTC().Format(time.RFC3339)
		out.LastRun = &lastRun
	}

	return out
}
