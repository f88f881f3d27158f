package logx

const (
	FieldAppName      = "app-name"
	FieldAppVersion   = "app-version"
	FieldCategory     = "category"
	FieldDurationMs   = "duration-ms"
	FieldError        = "error"
	FieldHTTPMethod   = "http-method"
	FieldHTTPRequest  = "http-request"
	FieldHTTPResponse = "http-response"
	FieldIP           = "ip"
	FieldMarket       = "market"
	FieldOutcome      = "outcome"
	FieldProductID    = "product-id"
	FieldRequestBody  = "request-body"
	FieldRequestID    = "request-id"
	FieldResponseBody = "response-body"
	FieldScanMode     = "scan-mode"
	FieldSchedule     = "schedule"
	FieldStack        = "stack"
	FieldTraceID      = "trace-id"
	FieldURL          = "url"
)
