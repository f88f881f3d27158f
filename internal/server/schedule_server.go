package server

import (
	"context"
	"fmt"
	"net/http"

	"git.appkode.ru/pub/go/failure"
	"github.com/robfig/cron/v3"

	"arbscan/internal/domain/entity"
	"arbscan/pkg/errcodes"
	"arbscan/pkg/httpx/reply"
	"arbscan/pkg/httpx/req"
	"arbscan/pkg/lox"
	"arbscan/pkg/rest"
)

type scheduleService interface {
	Create(ctx context.Context, schedule *entity.Schedule) error
	List(ctx context.Context) ([]*entity.Schedule, error)
}

type ScheduleServer struct {
	schedules scheduleService
}

func NewScheduleServer(schedules scheduleService) ScheduleServer {
	return ScheduleServer{schedules: schedules}
}

func (s ScheduleServer) postV1Schedule(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.CreateScheduleRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	// A schedule with an unparseable expression would never fire; reject it
	// at the door instead of logging on every tick.
	if _, err := cron.ParseStandard(request.CronExpr); err != nil {
		return failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("cron.ParseStandard: %w", err),
			failure.WithCode(errcodes.InvalidCronExpression),
		)
	}

	schedule := &entity.Schedule{
		Name:     request.Name,
		Category: request.Category,
		CronExpr: request.CronExpr,
		Status:   entity.ScheduleActive,
	}

	if err := s.schedules.Create(ctx, schedule); err != nil {
		return fmt.Errorf("schedules.Create: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTSchedule(schedule))

	return nil
}

func (s ScheduleServer) getV1Schedules(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	schedules, err := s.schedules.List(ctx)
	if err != nil {
		return fmt.Errorf("schedules.List: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lox.Map(schedules, func(schedule *entity.Schedule) rest.Schedule {
		return newRESTSchedule(schedule)
	}))

	return nil
}
