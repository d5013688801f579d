package application_test

import (
	"errors"
	"strings"
	"testing"

	"paygate/contexts/payments/webhook-engine/application"
	"paygate/contexts/payments/webhook-engine/domain/entities"
	domainerrors "paygate/contexts/payments/webhook-engine/domain/errors"
)

func rawEvent(fields map[string]string) entities.RawEvent {
	return entities.RawEvent{Fields: fields}
}

func TestValidateEventRejectsMissingRequiredFields(t *testing.T) {
	profile := application.DefaultProfile()

	_, err := application.ValidateEvent(rawEvent(map[string]string{"status": "1"}), profile)
	if !errors.Is(err, domainerrors.ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
	if !strings.Contains(err.Error(), "billcode") {
		t.Fatalf("error %q does not name the missing field", err)
	}

	_, err = application.ValidateEvent(rawEvent(map[string]string{"billcode": "abc"}), profile)
	if !errors.Is(err, domainerrors.ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
}

func TestValidateEventAcceptsGatewayAliases(t *testing.T) {
	profile := application.DefaultProfile()
	validated, err := application.ValidateEvent(rawEvent(map[string]string{
		"BillCode":          "abc",
		"billpaymentStatus": "1",
	}), profile)
	if err != nil {
		t.Fatalf("aliased fields rejected: %v", err)
	}
	if validated.UnknownStatus {
		t.Fatalf("known status flagged unknown")
	}
}

func TestValidateEventFlagsUnknownStatus(t *testing.T) {
	validated, err := application.ValidateEvent(rawEvent(map[string]string{
		"billcode": "abc",
		"status":   "7",
	}), application.DefaultProfile())
	if err != nil {
		t.Fatalf("unknown status rejected: %v", err)
	}
	if !validated.UnknownStatus {
		t.Fatalf("unknown status not flagged")
	}
}

func TestValidateEventRejectsBadAmounts(t *testing.T) {
	for _, amount := range []string{"abc", "-500", "Inf", "+Inf", "-Inf", "NaN"} {
		_, err := application.ValidateEvent(rawEvent(map[string]string{
			"billcode": "abc",
			"status":   "1",
			"amount":   amount,
		}), application.DefaultProfile())
		if !errors.Is(err, domainerrors.ErrInvalidAmount) {
			t.Errorf("amount %q: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestValidateEventSignature(t *testing.T) {
	profile := application.DefaultProfile()
	profile.SecretKey = "secret"
	raw := []byte("billcode=abc&status=1")

	event := entities.RawEvent{
		Fields: map[string]string{
			"billcode":  "abc",
			"status":    "1",
			"signature": application.SignPayload("secret", raw),
		},
		Raw: raw,
	}
	validated, err := application.ValidateEvent(event, profile)
	if err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if validated.SignatureSkipped {
		t.Fatalf("signature marked skipped despite verification")
	}

	// Uppercase hex from the gateway still verifies.
	event.Fields["signature"] = strings.ToUpper(event.Fields["signature"])
	if _, err := application.ValidateEvent(event, profile); err != nil {
		t.Fatalf("uppercase signature rejected: %v", err)
	}

	event.Fields["signature"] = "0000"
	if _, err := application.ValidateEvent(event, profile); !errors.Is(err, domainerrors.ErrSignatureVerification) {
		t.Fatalf("err = %v, want ErrSignatureVerification", err)
	}

	delete(event.Fields, "signature")
	if _, err := application.ValidateEvent(event, profile); !errors.Is(err, domainerrors.ErrSignatureVerification) {
		t.Fatalf("missing signature: err = %v, want ErrSignatureVerification", err)
	}
}

func TestValidateEventSkipsSignatureWithoutSecret(t *testing.T) {
	validated, err := application.ValidateEvent(rawEvent(map[string]string{
		"billcode": "abc",
		"status":   "1",
	}), application.DefaultProfile())
	if err != nil {
		t.Fatalf("unsigned event rejected: %v", err)
	}
	if !validated.SignatureSkipped {
		t.Fatalf("signature skip not flagged")
	}
}
