// Package config centralises configuration parsing for the webhook service.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAccessToken is returned by Validate when no Strava credential is configured.
var ErrMissingAccessToken = errors.New("STRAVA_ACCESS_TOKEN is required")

// Config captures runtime configuration values for the webhook service.
type Config struct {
	HTTPAddress        string
	StoreDSN           string
	StravaAPIURL       string
	StravaAccessToken  string
	StravaTimeout      time.Duration
	WebhookVerifyToken string
	KafkaBrokers       []string
	KafkaTopic         string
	JWTSecret          string
	JWTIssuer          string
	OTelEnabled        bool
	OTelEndpoint       string
	OTelSampleRatio    float64
	ShutdownTimeout    time.Duration
}

// Load reads environment variables into Config, applying defaults suitable for a single-host deployment.
func Load() Config {
	cfg := Config{
		HTTPAddress:        getEnv("HTTP_ADDRESS", "0.0.0.0:3000"),
		StoreDSN:           getEnv("STORE_DSN", "sqlite://processed_activities.db"),
		StravaAPIURL:       strings.TrimRight(getEnv("STRAVA_API_URL", "https://www.strava.com/api/v3"), "/"),
		StravaAccessToken:  strings.TrimSpace(os.Getenv("STRAVA_ACCESS_TOKEN")),
		StravaTimeout:      getDurationEnv("STRAVA_TIMEOUT", 10*time.Second),
		WebhookVerifyToken: os.Getenv("WEBHOOK_VERIFY_TOKEN"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "activity_privatized"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:          getEnv("JWT_ISSUER", "i5e.identity"),
		OTelEnabled:        getBoolEnv("OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:    getRatioEnv("OTEL_SAMPLING_RATIO", 1),
		ShutdownTimeout:    getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	cfg.KafkaBrokers = splitAndTrim(os.Getenv("KAFKA_BROKERS"))
	return cfg
}

// Validate reports configuration that would prevent the service from doing useful work.
func (c Config) Validate() error {
	if c.StravaAccessToken == "" {
		return ErrMissingAccessToken
	}
	return nil
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
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getRatioEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 && parsed <= 1 {
			return parsed
		}
	}
	return fallback
}
