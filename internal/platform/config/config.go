package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration for the validation engine.
type Server struct {
	Addr string

	// DatabaseURL enables the PostgreSQL stores when set; empty keeps the
	// in-memory stores (dev and unit tests).
	DatabaseURL string

	// Redis backs the application-scoped resolved-fields cache.
	Redis RedisConfig

	// KafkaBrokers enables the best-effort event mirror when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// ConfidenceFloor is the extraction confidence below which a finding is
	// eligible for escalation.
	ConfidenceFloor float64

	// ImpactThreshold seeds the dependency graph during targeted revalidation.
	ImpactThreshold float64

	// DispatchWorkers bounds parallel rule evaluation.
	DispatchWorkers int

	// CatalogPath points at the rule catalog document. Empty falls back to
	// the catalog bundled with the binary.
	CatalogPath string
}

// RedisConfig carries connection tuning for the resolved-fields cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PLANCHECK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	cfg := Server{
		Addr:            addr,
		DatabaseURL:     os.Getenv("PLANCHECK_DATABASE_URL"),
		ConfidenceFloor: envFloat("PLANCHECK_CONFIDENCE_FLOOR", 0.6),
		ImpactThreshold: envFloat("PLANCHECK_IMPACT_THRESHOLD", 0.5),
		DispatchWorkers: envInt("PLANCHECK_DISPATCH_WORKERS", 8),
		CatalogPath:     os.Getenv("PLANCHECK_CATALOG"),
		KafkaTopic:      envString("PLANCHECK_KAFKA_TOPIC", "plancheck.resolution-events"),
		Redis: RedisConfig{
			URL:          os.Getenv("PLANCHECK_REDIS_URL"),
			PoolSize:     envInt("PLANCHECK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("PLANCHECK_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	if brokers := os.Getenv("PLANCHECK_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
