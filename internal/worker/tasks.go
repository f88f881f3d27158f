// Package worker runs scan jobs off a redis-backed task queue. Handlers own
// retry classification, the throttled pricing client owns request pacing,
// and the queue owns scheduling and backoff.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"arbscan/internal/domain"
	"arbscan/internal/domain/entity"
	"arbscan/internal/domain/service/scan"
	"arbscan/pkg/contextx"
	"arbscan/pkg/errcodes"
	"arbscan/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	TaskProductScan  = "scan:product"
	TaskCategoryScan = "scan:category"

	QueueScans = "scans"
)

type ProductScanPayload struct {
	ProductID string          `json:"product_id"`
	Mode      entity.ScanMode `json:"mode"`
}

type CategoryScanPayload struct {
	Category   string `json:"category"`
	ScheduleID int64  `json:"schedule_id,omitempty"`
}

// Enqueuer is the producer side of the queue. The identity task ID makes a
// pending duplicate of the same product and mode collapse into one job.
type Enqueuer struct {
	client   *asynq.Client
	maxRetry int
}

func NewEnqueuer(client *asynq.Client, maxRetry int) *Enqueuer {
	return &Enqueuer{client: client, maxRetry: maxRetry}
}

func (e *Enqueuer) EnqueueProductScan(ctx context.Context, productID string, mode entity.ScanMode) error {
	payload, err := json.Marshal(ProductScanPayload{ProductID: productID, Mode: mode})
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "encode product scan payload")
	}

	task := asynq.NewTask(TaskProductScan, payload,
		asynq.Queue(QueueScans),
		asynq.MaxRetry(e.maxRetry),
		asynq.TaskID(TaskProductScan+":"+productID+":"+mode.String()),
	)

	_, err = e.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// Same product and mode already waiting; one evaluation suffices.
		logger(ctx).Info("product scan already pending", slog.String(logx.FieldProductID, productID))
		return nil
	}
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "enqueue product scan")
	}

	logger(ctx).Info("product scan enqueued",
		slog.String(logx.FieldProductID, productID),
		slog.String(logx.FieldScanMode, mode.String()),
	)

	return nil
}

func (e *Enqueuer) EnqueueCategoryScan(ctx context.Context, category string, scheduleID int64) error {
	payload, err := json.Marshal(CategoryScanPayload{Category: category, ScheduleID: scheduleID})
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "encode category scan payload")
	}

	task := asynq.NewTask(TaskCategoryScan, payload,
		asynq.Queue(QueueScans),
		asynq.MaxRetry(e.maxRetry),
	)

	_, err = e.client.EnqueueContext(ctx, task)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "enqueue category scan")
	}

	logger(ctx).Info("category scan enqueued", slog.String(logx.FieldCategory, category))

	return nil
}

// RetryDelay doubles the base delay on each attempt: base, 2x, 4x and so on.
func RetryDelay(baseDelay time.Duration) asynq.RetryDelayFunc {
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		return baseDelay * (1 << n)
	}
}

// retriesExhausted reports whether a failed attempt was the job's last one.
func retriesExhausted(retried, maxRetry int) bool {
	return retried >= maxRetry
}

// failureDetails pulls the product ID and scan mode out of a failed task for
// logging and metrics. Category jobs and unreadable payloads count under the
// "unknown" mode.
func failureDetails(task *asynq.Task) (productID, mode string) {
	mode = "unknown"
	if task.Type() != TaskProductScan {
		return "", mode
	}

	var payload ProductScanPayload
	if json.Unmarshal(task.Payload(), &payload) != nil {
		return "", mode
	}

	return payload.ProductID, payload.Mode.String()
}

// FinalFailureHandler logs jobs that exhausted their retries and counts them
// as failed. Non-final errors are already logged by the handlers themselves.
func FinalFailureHandler() asynq.ErrorHandlerFunc {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if !retriesExhausted(retried, maxRetry) {
			return
		}

		productID, mode := failureDetails(task)

		logger(ctx).Error("job failed permanently",
			slog.String("task", task.Type()),
			slog.String(logx.FieldProductID, productID),
			slog.String(logx.FieldScanMode, mode),
			logx.Error(err),
		)
		scan.CountFailure(mode)
	}
}
