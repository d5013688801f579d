package httpserver

import (
	"io"
	"log/slog"
	"net/http"

	billingclient "paygate/contexts/payments/billing-client"
	webhookengine "paygate/contexts/payments/webhook-engine"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "paygate/internal/platform/httpserver/docs"
)

const maxCallbackBody = 1 << 20

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	webhook webhookengine.Module
	billing billingclient.Module
}

func New(
	webhook webhookengine.Module,
	billing billingclient.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		webhook: webhook,
		billing: billing,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("POST /callbacks/payment", s.handlePaymentCallback)
	s.mux.HandleFunc("GET /v1/payments/{bill_code}", s.handleGetPayment)
	s.mux.HandleFunc("DELETE /v1/payments/{bill_code}", s.handleSoftDeletePayment)

	s.mux.HandleFunc("POST /v1/bills", s.handleCreateBill)
	s.mux.HandleFunc("GET /v1/bills/{bill_code}/transactions", s.handleListTransactions)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable_body", "request body could not be read")
		return
	}

	resp, err := s.webhook.Handler.ProcessCallbackHandler(r.Context(), body, r.Header.Get("Content-Type"))
	if err != nil {
		writeWebhookDomainError(w, err)
		return
	}
	// Duplicates and stale deliveries are acknowledged with 200 so the
	// gateway stops re-sending; the response body reports applied=false.
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	resp, err := s.webhook.Handler.GetPaymentHandler(r.Context(), r.PathValue("bill_code"))
	if err != nil {
		writeWebhookDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSoftDeletePayment(w http.ResponseWriter, r *http.Request) {
	resp, err := s.webhook.Handler.SoftDeletePaymentHandler(r.Context(), r.PathValue("bill_code"))
	if err != nil {
		writeWebhookDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
