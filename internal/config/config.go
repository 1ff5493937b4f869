package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Backend names recognized in EVAL_BACKEND.
const (
	BackendEngine = "engine"
	BackendCloud  = "cloud"
)

type Config struct {
	Addr        string
	DBPath      string
	LogLevel    string
	EvalBackend string

	EnginePath  string
	SearchDepth int

	CloudBaseURL string
	CloudToken   string

	DeltaSmall float64
	DeltaLarge float64

	AnalysisWorkerCount int
	AnalysisQueueSize   int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:        envOr("ADDR", ":8080"),
		DBPath:      envOr("DB_PATH", "file:missmeester.db"),
		LogLevel:    envOr("LOG_LEVEL", "INFO"),
		EvalBackend: envOr("EVAL_BACKEND", BackendEngine),

		EnginePath:  envOr("ENGINE_PATH", "stockfish"),
		SearchDepth: envIntOr("SEARCH_DEPTH", 15),

		CloudBaseURL: envOr("CLOUD_EVAL_URL", "https://lichess.org/api/cloud-eval"),
		CloudToken:   envOr("CLOUD_EVAL_TOKEN", ""),

		DeltaSmall: envFloatOr("DELTA_SMALL", 100),
		DeltaLarge: envFloatOr("DELTA_LARGE", 200),

		AnalysisWorkerCount: envIntOr("ANALYSIS_WORKER_COUNT", 1),
		AnalysisQueueSize:   envIntOr("ANALYSIS_QUEUE_SIZE", 16),
	}
}

// Validate checks the configuration for values that would only fail later,
// at batch time, so startup can refuse them up front.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.EvalBackend != BackendEngine && c.EvalBackend != BackendCloud {
		return fmt.Errorf("EVAL_BACKEND must be %q or %q, got %q", BackendEngine, BackendCloud, c.EvalBackend)
	}
	if c.SearchDepth < 1 || c.SearchDepth > 30 {
		return fmt.Errorf("SEARCH_DEPTH must be between 1 and 30, got %d", c.SearchDepth)
	}
	if c.DeltaSmall <= 0 || c.DeltaLarge <= 0 {
		return fmt.Errorf("DELTA_SMALL and DELTA_LARGE must be positive")
	}
	if c.DeltaSmall >= c.DeltaLarge {
		return fmt.Errorf("DELTA_SMALL (%.0f) must be below DELTA_LARGE (%.0f)", c.DeltaSmall, c.DeltaLarge)
	}
	if c.AnalysisWorkerCount < 1 {
		return fmt.Errorf("ANALYSIS_WORKER_COUNT must be at least 1")
	}
	if c.AnalysisQueueSize < 1 {
		return fmt.Errorf("ANALYSIS_QUEUE_SIZE must be at least 1")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %.0f", key, v, def)
	}
	return def
}
