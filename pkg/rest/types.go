package rest

// ScanRequest triggers a scan of one product.
type ScanRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Mode      string `json:"mode" validate:"required,oneof=manual automatic"`
}

type ScanResult struct {
	Outcome     string       `json:"outcome"`
	Opportunity *Opportunity `json:"opportunity,omitempty"`
}

type Opportunity struct {
	ProductID        string  `json:"productId"`
	Market           string  `json:"market"`
	Mode             string  `json:"mode"`
	Status           string  `json:"status"`
	ExternalRef      string  `json:"externalRef,omitempty"`
	Title            string  `json:"title,omitempty"`
	Brand            string  `json:"brand,omitempty"`
	SourcePrice      int64   `json:"sourcePrice"`
	TargetPrice      int64   `json:"targetPrice"`
	Fees             float64 `json:"fees"`
	ShippingEstimate float64 `json:"shippingEstimate"`
	RiskMultiplier   float64 `json:"riskMultiplier"`
	Score            float64 `json:"opportunityScore"`
	LastSeen         string  `json:"lastSeen"`
}

type CategoryScanRequest struct {
	Category string `json:"category" validate:"required"`
}

type CreateScheduleRequest struct {
	Name     string `json:"name" validate:"required"`
	Category string `json:"category" validate:"required"`
	CronExpr string `json:"cronExpr" validate:"required"`
}

type Schedule struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	CronExpr  string  `json:"cronExpr"`
	Status    string  `json:"status"`
	LastRun   *string `json:"lastRun,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// Error is the error body shape shared by all endpoints.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type ErrorCode string
