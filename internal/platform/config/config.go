package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	devGatewayURL        = "https://dev.toyyibpay.com"
	productionGatewayURL = "https://toyyibpay.com"
)

// Config is centralized process configuration. Infra values live here and are
// passed as typed config into builders; module code never reads the
// environment itself.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	GatewayBaseURL     string
	GatewaySecretKey   string
	WebhookSecret      string
	CategoryCode       string
	GatewayProfilePath string

	ReconcileAttempts  int
	PendingSweepEvery  time.Duration
	PendingSweepMinAge time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "paygate"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	baseURL := strings.TrimSpace(os.Getenv("GATEWAY_BASE_URL"))
	if baseURL == "" {
		if strings.EqualFold(strings.TrimSpace(os.Getenv("GATEWAY_ENVIRONMENT")), "dev") {
			baseURL = devGatewayURL
		} else {
			baseURL = productionGatewayURL
		}
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		GatewayBaseURL:     baseURL,
		GatewaySecretKey:   os.Getenv("GATEWAY_SECRET_KEY"),
		WebhookSecret:      os.Getenv("WEBHOOK_SECRET"),
		CategoryCode:       os.Getenv("GATEWAY_CATEGORY_CODE"),
		GatewayProfilePath: os.Getenv("GATEWAY_PROFILE_PATH"),

		ReconcileAttempts:  envInt("RECONCILE_ATTEMPTS", 3),
		PendingSweepEvery:  envDuration("PENDING_SWEEP_EVERY", 15*time.Minute),
		PendingSweepMinAge: envDuration("PENDING_SWEEP_MIN_AGE", time.Hour),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
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
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
