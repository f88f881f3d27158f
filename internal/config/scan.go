package config

import "time"

type Pricing struct {
	BaseURL   string        `env:"PRICING_BASE_URL,notEmpty"`
	AccessKey string        `env:"PRICING_ACCESS_KEY,notEmpty" json:"-"`
	Timeout   time.Duration `env:"PRICING_TIMEOUT" envDefault:"10s"`
	MaxBatch  int           `env:"PRICING_MAX_BATCH" envDefault:"100"`
}

type Scan struct {
	SourceMarket   string        `env:"SCAN_SOURCE_MARKET" envDefault:"US"`
	TargetMarket   string        `env:"SCAN_TARGET_MARKET" envDefault:"DE"`
	RankThreshold  int64         `env:"SCAN_RANK_THRESHOLD" envDefault:"20000"`
	Concurrency    int           `env:"SCAN_CONCURRENCY" envDefault:"5"`
	Throttle       time.Duration `env:"SCAN_THROTTLE" envDefault:"1200ms"`
	MaxRetry       int           `env:"SCAN_MAX_RETRY" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"SCAN_RETRY_BASE_DELAY" envDefault:"5s"`
	SnapshotTTL    time.Duration `env:"SCAN_SNAPSHOT_TTL" envDefault:"24h"`
	OpportunityTTL time.Duration `env:"SCAN_OPPORTUNITY_TTL" envDefault:"1h"`
}

type Scheduler struct {
	Tick time.Duration `env:"SCHEDULER_TICK" envDefault:"60s"`
}
