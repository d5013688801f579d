package billingclient

import (
	"log/slog"
	"net/http"
	"time"

	httpadapter "paygate/contexts/payments/billing-client/adapters/http"
	"paygate/contexts/payments/billing-client/application"
	"paygate/contexts/payments/billing-client/ports"
)

type Module struct {
	Client  application.Client
	Handler httpadapter.Handler
}

type Dependencies struct {
	BaseURL      string
	SecretKey    string
	CategoryCode string
	HTTPClient   ports.HTTPDoer
	Timeout      time.Duration
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		timeout := deps.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	client := application.Client{
		BaseURL:      deps.BaseURL,
		SecretKey:    deps.SecretKey,
		CategoryCode: deps.CategoryCode,
		HTTP:         httpClient,
		Logger:       deps.Logger,
	}
	return Module{
		Client: client,
		Handler: httpadapter.Handler{
			Client: client,
			Logger: deps.Logger,
		},
	}
}
