package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	billingerrors "paygate/contexts/payments/billing-client/domain/errors"
	billingtransport "paygate/contexts/payments/billing-client/transport/http"
	webhookerrors "paygate/contexts/payments/webhook-engine/domain/errors"
	webhooktransport "paygate/contexts/payments/webhook-engine/transport/http"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, webhooktransport.ErrorResponse{Code: code, Message: message})
}

// writeWebhookDomainError maps webhook-engine sentinel errors onto HTTP
// statuses. The gateway retries every non-2xx response, so only failures
// that a retry could plausibly fix get a 5xx.
func writeWebhookDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, webhookerrors.ErrMalformedPayload),
		errors.Is(err, webhookerrors.ErrMissingField),
		errors.Is(err, webhookerrors.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
	case errors.Is(err, webhookerrors.ErrSignatureVerification):
		writeError(w, http.StatusUnauthorized, "signature_verification_failed", err.Error())
	case errors.Is(err, webhookerrors.ErrConflict):
		writeError(w, http.StatusConflict, "transition_conflict", err.Error())
	case errors.Is(err, webhookerrors.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "payment_not_found", err.Error())
	case errors.Is(err, webhookerrors.ErrReconciliationUnavailable),
		errors.Is(err, webhookerrors.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "temporarily_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeBillingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billingerrors.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, billingerrors.ErrGatewayTimeout):
		writeError(w, http.StatusGatewayTimeout, "gateway_timeout", err.Error())
	case errors.Is(err, billingerrors.ErrGatewayRejected):
		writeError(w, http.StatusBadGateway, "gateway_rejected", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billingtransport.CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	resp, err := s.billing.Handler.CreateBillHandler(r.Context(), req)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	resp, err := s.billing.Handler.ListTransactionsHandler(
		r.Context(),
		r.PathValue("bill_code"),
		r.URL.Query().Get("status"),
	)
	if err != nil {
		writeBillingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
