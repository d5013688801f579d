package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	billingclient "paygate/contexts/payments/billing-client"
	webhookengine "paygate/contexts/payments/webhook-engine"
	postgresadapter "paygate/contexts/payments/webhook-engine/adapters/postgres"
	"paygate/contexts/payments/webhook-engine/application"
	workerapp "paygate/contexts/payments/webhook-engine/application/workers"
	"paygate/internal/platform/config"
	"paygate/internal/platform/db"
	"paygate/internal/platform/httpserver"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	sweeper  workerapp.PendingSweeper
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}

	billing := billingclient.NewModule(billingclient.Dependencies{
		BaseURL:      cfg.GatewayBaseURL,
		SecretKey:    cfg.GatewaySecretKey,
		CategoryCode: cfg.CategoryCode,
		Logger:       logger,
	})

	profile, err := loadProfile(cfg)
	if err != nil {
		return nil, err
	}

	webhook := webhookengine.NewModule(webhookengine.Dependencies{
		Store:             repo,
		Lookup:            billing.Client,
		Clock:             postgresadapter.SystemClock{},
		IDGenerator:       postgresadapter.UUIDGenerator{},
		Profile:           profile,
		ReconcileAttempts: cfg.ReconcileAttempts,
		Logger:            logger,
	})

	server := httpserver.New(webhook, billing, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}

	billing := billingclient.NewModule(billingclient.Dependencies{
		BaseURL:      cfg.GatewayBaseURL,
		SecretKey:    cfg.GatewaySecretKey,
		CategoryCode: cfg.CategoryCode,
		Logger:       logger,
	})

	profile, err := loadProfile(cfg)
	if err != nil {
		return nil, err
	}

	webhook := webhookengine.NewModule(webhookengine.Dependencies{
		Store:             repo,
		Lookup:            billing.Client,
		Clock:             postgresadapter.SystemClock{},
		IDGenerator:       postgresadapter.UUIDGenerator{},
		Profile:           profile,
		ReconcileAttempts: cfg.ReconcileAttempts,
		Logger:            logger,
	})

	return &WorkerApp{
		postgres: pg,
		sweeper: workerapp.PendingSweeper{
			Service:  webhook.Service,
			Clock:    postgresadapter.SystemClock{},
			Interval: cfg.PendingSweepEvery,
			MinAge:   cfg.PendingSweepMinAge,
			Logger:   logger,
		},
		logger: logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_interval", w.sweeper.Interval.String(),
	)
	return w.sweeper.Run(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func loadProfile(cfg config.Config) (application.Profile, error) {
	profile := application.DefaultProfile()
	if cfg.GatewayProfilePath != "" {
		loaded, err := config.LoadGatewayProfile(cfg.GatewayProfilePath)
		if err != nil {
			return application.Profile{}, err
		}
		profile = loaded
	}
	profile.SecretKey = cfg.WebhookSecret
	return profile, nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
