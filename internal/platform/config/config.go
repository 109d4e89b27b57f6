package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string

	// PostgresDSN empty selects the in-memory runtime, seeded from
	// ElectionsFile. Production always sets a DSN.
	PostgresDSN   string
	RedisURL      string
	ElectionsFile string

	SMSGatewayURL string
	SMSFrom       string

	WorkerPollInterval time.Duration
	WorkerBatchSize    int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "civicvote"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,

		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RedisURL:      os.Getenv("REDIS_URL"),
		ElectionsFile: os.Getenv("ELECTIONS_FILE"),

		SMSGatewayURL: os.Getenv("SMS_GATEWAY_URL"),
		SMSFrom:       os.Getenv("SMS_FROM"),

		WorkerPollInterval: envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		WorkerBatchSize:    envInt("WORKER_BATCH_SIZE", 100),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
