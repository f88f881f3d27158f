package server

import (
	"context"
	"fmt"
	"net/http"

	"git.appkode.ru/pub/go/failure"

	"arbscan/internal/domain/entity"
	"arbscan/internal/domain/service/scan"
	"arbscan/pkg/errcodes"
	"arbscan/pkg/httpx/reply"
	"arbscan/pkg/httpx/req"
	"arbscan/pkg/lox"
	"arbscan/pkg/rest"
)

type scanService interface {
	Scan(ctx context.Context, productID string, mode entity.ScanMode) (scan.Result, error)
}

type scanEnqueuer interface {
	EnqueueProductScan(ctx context.Context, productID string, mode entity.ScanMode) error
	EnqueueCategoryScan(ctx context.Context, category string, scheduleID int64) error
}

type opportunityLister interface {
	ListShown(ctx context.Context, market entity.Market, limit int) ([]*entity.Opportunity, error)
}

type ScanServer struct {
	scanService   scanService
	enqueuer      scanEnqueuer
	opportunities opportunityLister
	targetMarket  entity.Market
}

func NewScanServer(
	scanService scanService,
	enqueuer scanEnqueuer,
	opportunities opportunityLister,
	targetMarket entity.Market,
) ScanServer {
	return ScanServer{
		scanService:   scanService,
		enqueuer:      enqueuer,
		opportunities: opportunities,
		targetMarket:  targetMarket,
	}
}

// postV1Scan runs a manual scan synchronously and returns its result;
// automatic requests only enqueue.
func (s ScanServer) postV1Scan(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.ScanRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	mode, err := entity.ParseScanMode(request.Mode)
	if err != nil {
		return failure.NewInvalidArgumentErrorFromError(err, failure.WithCode(errcodes.InvalidScanMode))
	}

	if mode == entity.ScanModeAutomatic {
		if err := s.enqueuer.EnqueueProductScan(ctx, request.ProductID, mode); err != nil {
			return fmt.Errorf("enqueuer.EnqueueProductScan: %w", err)
		}

		reply.Accepted(w)

		return nil
	}

	result, err := s.scanService.Scan(ctx, request.ProductID, mode)
	if err != nil {
		return fmt.Errorf("scanService.Scan: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.ScanResult{
		Outcome:     string(result.Outcome),
		Opportunity: newRESTOpportunity(result.Opportunity),
	})

	return nil
}

func (s ScanServer) postV1CategoryScan(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.CategoryScanRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	if err := s.enqueuer.EnqueueCategoryScan(ctx, request.Category, 0); err != nil {
		return fmt.Errorf("enqueuer.EnqueueCategoryScan: %w", err)
	}

	reply.Accepted(w)

	return nil
}

func (s ScanServer) getV1Opportunities(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	market := s.targetMarket
	if raw := r.URL.Query().Get("market"); raw != "" {
		parsed, err := entity.ParseMarket(raw)
		if err != nil {
			return failure.NewInvalidArgumentErrorFromError(err, failure.WithCode(errcodes.InvalidMarket))
		}
		market = parsed
	}

	opportunities, err := s.opportunities.ListShown(ctx, market, 100)
	if err != nil {
		return fmt.Errorf("opportunities.ListShown: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lox.Map(opportunities, func(o *entity.Opportunity) *rest.Opportunity {
		return newRESTOpportunity(o)
	}))

	return nil
}
