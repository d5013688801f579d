package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"paygate/contexts/payments/webhook-engine/domain/entities"
	domainerrors "paygate/contexts/payments/webhook-engine/domain/errors"
)

// ValidateEvent runs the ordered structural checks on a raw event: required
// fields, status vocabulary, amount shape, and signature. Unknown status codes
// are accepted and flagged rather than rejected, because the gateway may
// introduce new codes ahead of this vocabulary. A signature mismatch rejects
// the event outright; a missing configured secret records a degraded-trust
// flag instead.
func ValidateEvent(event entities.RawEvent, profile Profile) (entities.ValidatedEvent, error) {
	for _, field := range profile.requiredFields() {
		if strings.TrimSpace(resolveRequired(event.Fields, field)) == "" {
			return entities.ValidatedEvent{}, fmt.Errorf("%w: %s", domainerrors.ErrMissingField, field)
		}
	}

	validated := entities.ValidatedEvent{RawEvent: event}

	if code := strings.TrimSpace(firstField(event.Fields, statusAliases)); code != "" {
		if _, known := profile.statusFor(code); !known {
			validated.UnknownStatus = true
		}
	}

	if raw := strings.TrimSpace(firstField(event.Fields, amountAliases)); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		// ParseFloat also accepts "Inf" and "NaN"; neither is a money amount.
		if err != nil || amount < 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
			return entities.ValidatedEvent{}, fmt.Errorf("%w: %q", domainerrors.ErrInvalidAmount, raw)
		}
	}

	if strings.TrimSpace(profile.SecretKey) == "" {
		validated.SignatureSkipped = true
		return validated, nil
	}

	supplied := strings.TrimSpace(event.Field(profile.signatureField()))
	if supplied == "" {
		return entities.ValidatedEvent{}, fmt.Errorf("%w: signature field %q is empty", domainerrors.ErrSignatureVerification, profile.signatureField())
	}
	expected := SignPayload(profile.SecretKey, event.Raw)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(supplied))) {
		return entities.ValidatedEvent{}, domainerrors.ErrSignatureVerification
	}
	return validated, nil
}

// SignPayload computes the hex HMAC-SHA256 of the canonical byte payload.
// The gateway has not published its signing scheme; this mirrors the common
// HMAC-over-raw-body convention and must be re-checked against the provider's
// documentation before relying on it in production.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// resolveRequired lets a profile name canonical fields while the wire carries
// gateway aliases.
func resolveRequired(fields map[string]string, field string) string {
	switch field {
	case fieldBillCode:
		return firstField(fields, billCodeAliases)
	case fieldStatus:
		return firstField(fields, statusAliases)
	default:
		return fields[field]
	}
}
