package application_test

import (
	"testing"
	"time"

	"paygate/contexts/payments/webhook-engine/application"
	"paygate/contexts/payments/webhook-engine/domain/entities"
)

func validated(fields map[string]string) entities.ValidatedEvent {
	return entities.ValidatedEvent{RawEvent: entities.RawEvent{Fields: fields}}
}

func TestMapEventCanonicalFields(t *testing.T) {
	data := application.MapEvent(validated(map[string]string{
		"billcode":         "abc123",
		"status":           "1",
		"refno":            "TP2403140001",
		"order_id":         "ORD-77",
		"amount":           "1550",
		"reason":           "",
		"transaction_time": "2026-03-14 09:30:00",
		"extra":            "kept",
	}), application.DefaultProfile())

	if data.BillCode != "abc123" {
		t.Fatalf("bill code = %q, want abc123", data.BillCode)
	}
	if data.Status != entities.StatusSuccess {
		t.Fatalf("status = %s, want SUCCESS", data.Status)
	}
	if data.GatewayStatus != "1" {
		t.Fatalf("gateway status = %q, want 1", data.GatewayStatus)
	}
	if data.TransactionID != "TP2403140001" {
		t.Fatalf("transaction id = %q, want refno fallback", data.TransactionID)
	}
	if data.OrderID != "ORD-77" {
		t.Fatalf("order id = %q, want ORD-77", data.OrderID)
	}
	if data.Amount == nil || *data.Amount != 15.50 {
		t.Fatalf("amount = %v, want 15.50 (cents to major units)", data.Amount)
	}
	want := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	if data.GatewayTime == nil || !data.GatewayTime.Equal(want) {
		t.Fatalf("gateway time = %v, want %v", data.GatewayTime, want)
	}
	if data.Raw["extra"] != "kept" {
		t.Fatalf("unmapped fields not preserved in Raw")
	}
}

func TestMapEventStatusCodes(t *testing.T) {
	cases := map[string]entities.PaymentStatus{
		"1":  entities.StatusSuccess,
		"2":  entities.StatusPending,
		"3":  entities.StatusFailed,
		"4":  entities.StatusPending,
		"99": entities.StatusUnknown,
	}
	for code, want := range cases {
		data := application.MapEvent(validated(map[string]string{
			"billcode": "abc",
			"status":   code,
		}), application.DefaultProfile())
		if data.Status != want {
			t.Errorf("code %s mapped to %s, want %s", code, data.Status, want)
		}
	}
}

func TestMapEventPrefersCanonicalNamesOverAliases(t *testing.T) {
	data := application.MapEvent(validated(map[string]string{
		"billcode":          "canonical",
		"bill_code":         "alias",
		"status":            "2",
		"billpaymentStatus": "1",
		"transaction_id":    "T-primary",
		"refno":             "T-fallback",
	}), application.DefaultProfile())

	if data.BillCode != "canonical" {
		t.Fatalf("bill code = %q, want canonical", data.BillCode)
	}
	if data.Status != entities.StatusPending {
		t.Fatalf("status = %s, want PENDING from canonical field", data.Status)
	}
	if data.TransactionID != "T-primary" {
		t.Fatalf("transaction id = %q, want T-primary", data.TransactionID)
	}
	if data.RefNo != "T-fallback" {
		t.Fatalf("ref no = %q, want T-fallback", data.RefNo)
	}
}

func TestMapEventOmitsAbsentOptionals(t *testing.T) {
	data := application.MapEvent(validated(map[string]string{
		"billcode": "abc",
		"status":   "3",
	}), application.DefaultProfile())
	if data.Amount != nil {
		t.Fatalf("amount = %v, want nil", data.Amount)
	}
	if data.GatewayTime != nil {
		t.Fatalf("gateway time = %v, want nil", data.GatewayTime)
	}
}
