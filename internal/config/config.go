// Package config centralises configuration parsing for the step tracker.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures runtime configuration values for the tracker binaries.
type Config struct {
	HTTPAddress    string
	MetricsAddress string
	// PostgresURL selects the durable store. When empty, both binaries run
	// on in-memory stores, which suits local development and tests.
	PostgresURL string

	KafkaBrokers         []string
	CheckinTopic         string
	ConsumerGroup        string
	PublishEventsToKafka bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:          getEnv("HTTP_ADDRESS", ":8080"),
		MetricsAddress:       getEnv("METRICS_ADDRESS", ":9102"),
		PostgresURL:          getEnv("POSTGRES_URL", ""),
		CheckinTopic:         getEnv("KAFKA_CHECKIN_TOPIC", "keepfit_checkins"),
		ConsumerGroup:        getEnv("KAFKA_CONSUMER_GROUP", "keepfit-consumer"),
		PublishEventsToKafka: getBoolEnv("KAFKA_PUBLISH_EVENTS", false),
		ReadTimeout:          getDurationEnv("HTTP_READ_TIMEOUT", 5*time.Second),
		WriteTimeout:         getDurationEnv("HTTP_WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:          getDurationEnv("HTTP_IDLE_TIMEOUT", time.Minute),
	}

	brokers := getEnv("KAFKA_BROKERS", "kafka:9092")
	cfg.KafkaBrokers = splitAndTrim(brokers)
	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value == "true" || value == "1"
	}
	return fallback
}
