package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"

	// Scan pipeline.
	ProductNotFound   failure.ErrorCode = "ProductNotFound"   // product absent from a market catalog, terminal
	RateLimited       failure.ErrorCode = "RateLimited"       // pricing API quota hit, retryable
	TransientFailure  failure.ErrorCode = "TransientFailure"  // network / 5xx, retryable
	MalformedResponse failure.ErrorCode = "MalformedResponse" // unexpected response shape, non-retryable
	StoreUnavailable  failure.ErrorCode = "StoreUnavailable"  // persist failed, retryable at the worker level
	CacheUnavailable  failure.ErrorCode = "CacheUnavailable"  // cache degraded, never fatal to a scan

	// Schedules.
	ScheduleNotFound      failure.ErrorCode = "ScheduleNotFound"
	InvalidCronExpression failure.ErrorCode = "InvalidCronExpression"
	InvalidScanMode       failure.ErrorCode = "InvalidScanMode"
	InvalidMarket         failure.ErrorCode = "InvalidMarket"
)
