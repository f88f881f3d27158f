// Package scheduler turns cron-expressed schedules into category scan jobs.
// It polls the schedule store on a fixed tick instead of keeping in-process
// timers, so restarts and multiple instances need no state handoff.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"

	"arbscan/internal/domain/entity"
	"arbscan/pkg/contextx"
	"arbscan/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const defaultTick = time.Minute

type ScheduleStore interface {
	ListActive(ctx context.Context) ([]*entity.Schedule, error)
	UpdateLastRun(ctx context.Context, id int64, lastRun time.Time) error
}

type CategoryEnqueuer interface {
	EnqueueCategoryScan(ctx context.Context, category string, scheduleID int64) error
}

type Scheduler struct {
	store    ScheduleStore
	enqueuer CategoryEnqueuer

	tick   time.Duration
	now    func() time.Time
	parsed *gocache.Cache
}

func New(store ScheduleStore, enqueuer CategoryEnqueuer) *Scheduler {
	return &Scheduler{
		store:    store,
		enqueuer: enqueuer,
		tick:     defaultTick,
		now:      time.Now,
		parsed:   gocache.New(time.Hour, 10*time.Minute),
	}
}

func (s *Scheduler) WithTick(tick time.Duration) *Scheduler {
	if tick > 0 {
		s.tick = tick
	}
	return s
}

func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	logger(ctx).Info("scheduler started", slog.Duration("tick", s.tick))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick evaluates every active schedule once. A schedule whose next cron
// occurrence after its last run has passed is due; one bad schedule never
// blocks the others.
func (s *Scheduler) Tick(ctx context.Context) {
	schedules, err := s.store.ListActive(ctx)
	if err != nil {
		logger(ctx).Error("failed to list schedules", logx.Error(err))
		return
	}

	now := s.now()
	for _, schedule := range schedules {
		if !s.due(ctx, schedule, now) {
			continue
		}
		s.fire(ctx, schedule, now)
	}
}

func (s *Scheduler) due(ctx context.Context, schedule *entity.Schedule, now time.Time) bool {
	spec, err := s.parse(schedule.CronExpr)
	if err != nil {
		logger(ctx).Error("invalid cron expression",
			slog.Int64(logx.FieldSchedule, schedule.ID),
			slog.String("cron", schedule.CronExpr),
			logx.Error(err),
		)
		return false
	}

	// First evaluation anchors at creation so a new schedule does not fire
	// for occurrences that predate it.
	anchor := schedule.CreatedAt
	if schedule.LastRun != nil {
		anchor = *schedule.LastRun
	}

	next := spec.Next(anchor)
	return !next.IsZero() && !next.After(now)
}

func (s *Scheduler) fire(ctx context.Context, schedule *entity.Schedule, now time.Time) {
	log := logger(ctx).With(
		slog.Int64(logx.FieldSchedule, schedule.ID),
		slog.String(logx.FieldCategory, schedule.Category),
	)

	if err := s.enqueuer.EnqueueCategoryScan(ctx, schedule.Category, schedule.ID); err != nil {
		// LastRun stays put so the next tick retries the trigger.
		log.Error("failed to enqueue category scan", logx.Error(err))
		return
	}

	if err := s.store.UpdateLastRun(ctx, schedule.ID, now); err != nil {
		log.Error("failed to record schedule run", logx.Error(err))
		return
	}

	log.Info("schedule fired")
}

// parse memoizes cron parsing; expressions repeat on every tick.
func (s *Scheduler) parse(expr string) (cron.Schedule, error) {
	if cached, ok := s.parsed.Get(expr); ok {
		return cached.(cron.Schedule), nil
	}

	spec, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, err
	}

	s.parsed.Set(expr, spec, gocache.DefaultExpiration)

	return spec, nil
}
