package application

import (
	"strings"

	"paygate/contexts/payments/webhook-engine/domain/entities"
)

// Profile captures the gateway-version-dependent parts of the inbound
// vocabulary: which fields must be present, which status codes are known, and
// how the optional signature is carried. One engine instance handles exactly
// one profile.
type Profile struct {
	RequiredFields []string
	StatusCodes    map[string]entities.PaymentStatus
	SecretKey      string
	SignatureField string
}

// DefaultProfile matches the gateway's documented callback vocabulary:
// billcode and status are mandatory, codes 1-4 are known, the signature (when
// the gateway signs payloads) rides in the "signature" field.
func DefaultProfile() Profile {
	return Profile{
		RequiredFields: []string{fieldBillCode, fieldStatus},
		StatusCodes: map[string]entities.PaymentStatus{
			"1": entities.StatusSuccess,
			"2": entities.StatusPending,
			"3": entities.StatusFailed,
			"4": entities.StatusPending,
		},
		SignatureField: "signature",
	}
}

func (p Profile) requiredFields() []string {
	if len(p.RequiredFields) == 0 {
		return []string{fieldBillCode, fieldStatus}
	}
	return p.RequiredFields
}

func (p Profile) statusFor(code string) (entities.PaymentStatus, bool) {
	codes := p.StatusCodes
	if len(codes) == 0 {
		codes = DefaultProfile().StatusCodes
	}
	status, ok := codes[strings.TrimSpace(code)]
	if !ok {
		return entities.StatusUnknown, false
	}
	return status, true
}

func (p Profile) signatureField() string {
	if strings.TrimSpace(p.SignatureField) == "" {
		return "signature"
	}
	return p.SignatureField
}
