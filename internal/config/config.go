package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP      HTTP
	Probe     Probe
	Metrics   Metrics
	Postgres  Postgres
	Redis     Redis
	Pricing   Pricing
	Scan      Scan
	Scheduler Scheduler
}

type HTTP struct {
	Address         string        `env:"HTTP_ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Probe struct {
	Address string `env:"PROBE_ADDRESS" envDefault:":8091"`
}

type Metrics struct {
	Address string `env:"METRICS_ADDRESS" envDefault:":8092"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	return config, nil
}
