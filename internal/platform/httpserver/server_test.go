package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	billingclient "paygate/contexts/payments/billing-client"
	webhookengine "paygate/contexts/payments/webhook-engine"
	"paygate/contexts/payments/webhook-engine/domain/entities"
	"paygate/contexts/payments/webhook-engine/ports"
	"paygate/internal/platform/httpserver"
)

type staticLookup struct {
	snapshot ports.BillSnapshot
}

func (l staticLookup) LookupBill(_ context.Context, billCode string) (ports.BillSnapshot, error) {
	snapshot := l.snapshot
	snapshot.BillCode = billCode
	return snapshot, nil
}

func newTestServer() http.Handler {
	webhook := webhookengine.NewInMemoryModule(staticLookup{
		snapshot: ports.BillSnapshot{Status: entities.StatusSuccess},
	}, nil)
	billing := billingclient.NewModule(billingclient.Dependencies{
		BaseURL:   "http://gateway.invalid",
		SecretKey: "sk",
	})
	return httpserver.New(webhook, billing, nil, ":0").Handler()
}

func postCallback(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callbacks/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestCallbackEndpointAppliesTransition(t *testing.T) {
	handler := newTestServer()

	resp := postCallback(t, handler, "billcode=srv1&status=1&transaction_id=T1&amount=1000")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", resp.Code, resp.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response not json: %v", err)
	}
	if payload["applied"] != true {
		t.Fatalf("applied = %v, want true", payload["applied"])
	}
	if payload["payment_status"] != "SUCCESS" {
		t.Fatalf("payment status = %v, want SUCCESS", payload["payment_status"])
	}
}

func TestCallbackEndpointAcknowledgesDuplicates(t *testing.T) {
	handler := newTestServer()

	body := "billcode=srv2&status=1&transaction_id=T1"
	if resp := postCallback(t, handler, body); resp.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d", resp.Code)
	}
	resp := postCallback(t, handler, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want 200 so the gateway stops retrying", resp.Code)
	}
	var payload map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &payload)
	if payload["applied"] != false {
		t.Fatalf("duplicate applied = %v, want false", payload["applied"])
	}
}

func TestCallbackEndpointRejectsInvalidPayloads(t *testing.T) {
	handler := newTestServer()

	cases := map[string]struct {
		body string
		want int
	}{
		"malformed":      {body: `{"unrelated":"x"}`, want: http.StatusBadRequest},
		"missing status": {body: "billcode=srv3", want: http.StatusBadRequest},
		"bad amount":     {body: "billcode=srv3&status=1&amount=abc", want: http.StatusBadRequest},
	}
	for name, tc := range cases {
		if resp := postCallback(t, handler, tc.body); resp.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", name, resp.Code, tc.want)
		}
	}
}

func TestPaymentLifecycleEndpoints(t *testing.T) {
	handler := newTestServer()
	postCallback(t, handler, "billcode=srv4&status=1&transaction_id=T1&amount=2500")

	req := httptest.NewRequest(http.MethodGet, "/v1/payments/srv4", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get payment status = %d", recorder.Code)
	}
	var payload struct {
		Data struct {
			CurrentStatus string `json:"current_status"`
			Amount        *float64
		} `json:"data"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("get payment response not json: %v", err)
	}
	if payload.Data.CurrentStatus != "SUCCESS" {
		t.Fatalf("current status = %q, want SUCCESS", payload.Data.CurrentStatus)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/payments/srv4", nil)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("soft delete status = %d", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/payments/srv4", nil)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", recorder.Code)
	}
}

func TestUnknownPaymentIs404(t *testing.T) {
	handler := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/v1/payments/nope", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", recorder.Code)
	}
}
