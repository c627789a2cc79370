package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization struct {
		// WorkerCount caps the evaluation workers per job. Zero means one
		// worker per CPU.
		WorkerCount       int `env:"OPT_WORKER_COUNT" envDefault:"0"`
		MaxConcurrentJobs int `env:"OPT_MAX_CONCURRENT_JOBS" envDefault:"4"`
		// MaxGenerations and MaxPopulation bound what a single HTTP request
		// may ask for.
		MaxGenerations int `env:"OPT_MAX_GENERATIONS" envDefault:"100000"`
		MaxPopulation  int `env:"OPT_MAX_POPULATION" envDefault:"10000"`
	}
	Store struct {
		DumpDir string `env:"STORE_DUMP_DIR" envDefault:"data/dumps"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Development runs default to debug logging unless the level was set
	// explicitly
	if cfg.Environment == "development" && GetEnv("LOG_LEVEL", "") == "" {
		cfg.Logging.Level = "debug"
	}

	if cfg.Optimization.MaxConcurrentJobs < 1 {
		return nil, fmt.Errorf("OPT_MAX_CONCURRENT_JOBS must be at least 1, got %d", cfg.Optimization.MaxConcurrentJobs)
	}

	// Ensure the coordinate dump directory exists
	if cfg.Store.DumpDir != "" {
		if err := os.MkdirAll(cfg.Store.DumpDir, 0755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// GetEnv returns the value of the environment variable or the default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
