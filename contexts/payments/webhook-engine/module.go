package webhookengine

import (
	"log/slog"
	"time"

	httpadapter "paygate/contexts/payments/webhook-engine/adapters/http"
	"paygate/contexts/payments/webhook-engine/adapters/memory"
	"paygate/contexts/payments/webhook-engine/application"
	"paygate/contexts/payments/webhook-engine/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Service  application.Service
	Registry *application.Registry
	Store    *memory.Store
}

type Dependencies struct {
	Store              ports.PaymentStore
	Lookup             ports.BillLookup
	Registry           *application.Registry
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	Profile            application.Profile
	ReconcileAttempts  int
	ReconcileBaseDelay time.Duration
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	registry := deps.Registry
	if registry == nil {
		registry = application.NewRegistry()
	}
	service := application.Service{
		Store:              deps.Store,
		Registry:           registry,
		Lookup:             deps.Lookup,
		Clock:              deps.Clock,
		IDGen:              deps.IDGenerator,
		Profile:            deps.Profile,
		ReconcileAttempts:  deps.ReconcileAttempts,
		ReconcileBaseDelay: deps.ReconcileBaseDelay,
		Logger:             deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service:  service,
		Registry: registry,
	}
}

func NewInMemoryModule(lookup ports.BillLookup, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Store:       store,
		Lookup:      lookup,
		Clock:       store,
		IDGenerator: store,
		Profile:     application.DefaultProfile(),
		Logger:      logger,
	})
	module.Store = store
	return module
}
