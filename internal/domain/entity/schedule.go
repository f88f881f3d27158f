package entity

import "time"

type ScheduleStatus string

const (
	ScheduleActive ScheduleStatus = "active"
	SchedulePaused ScheduleStatus = "paused"
)

// Schedule is a recurring category-scan trigger. Only LastRun mutates after
// creation, and only the scheduler mutates it.
type Schedule struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Category  string         `json:"category"`
	CronExpr  string         `json:"cron_expr"`
	Status    ScheduleStatus `json:"status"`
	LastRun   *time.Time     `json:"last_run,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
