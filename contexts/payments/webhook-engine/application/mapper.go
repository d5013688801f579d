package application

import (
	"strconv"
	"strings"
	"time"

	"paygate/contexts/payments/webhook-engine/domain/entities"
)

// All gateway field-naming churn is isolated here: an API version that renames
// a field is absorbed by extending an alias list, nothing downstream changes.
const (
	fieldBillCode = "billcode"
	fieldStatus   = "status"
)

var (
	billCodeAliases    = []string{"billcode", "BillCode", "bill_code"}
	statusAliases      = []string{"status", "status_id", "billpaymentStatus"}
	transactionAliases = []string{"transaction_id", "refno", "billpaymentInvoiceNo"}
	refNoAliases       = []string{"refno", "ref_no"}
	orderAliases       = []string{"order_id", "billExternalReferenceNo"}
	amountAliases      = []string{"amount", "billpaymentAmount"}
	reasonAliases      = []string{"reason"}
	timeAliases        = []string{"transaction_time", "billPaymentDate"}
)

var gatewayTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
	time.RFC3339,
}

// MapEvent converts a validated event into CallbackData. It is total: every
// failure mode (missing bill code, unparseable amount) is already excluded by
// the validator. Unknown extra fields survive verbatim in Raw for audit.
func MapEvent(event entities.ValidatedEvent, profile Profile) entities.CallbackData {
	gatewayStatus := strings.TrimSpace(firstField(event.Fields, statusAliases))
	status, known := profile.statusFor(gatewayStatus)
	if !known {
		status = entities.StatusUnknown
	}

	data := entities.CallbackData{
		BillCode:      strings.TrimSpace(firstField(event.Fields, billCodeAliases)),
		Status:        status,
		GatewayStatus: gatewayStatus,
		TransactionID: strings.TrimSpace(firstField(event.Fields, transactionAliases)),
		RefNo:         strings.TrimSpace(firstField(event.Fields, refNoAliases)),
		OrderID:       strings.TrimSpace(firstField(event.Fields, orderAliases)),
		Reason:        strings.TrimSpace(firstField(event.Fields, reasonAliases)),
		Raw:           copyFields(event.Fields),
	}

	if raw := strings.TrimSpace(firstField(event.Fields, amountAliases)); raw != "" {
		if cents, err := strconv.ParseFloat(raw, 64); err == nil && cents >= 0 {
			// Gateway reports amounts in the smallest currency unit.
			amount := cents / 100
			data.Amount = &amount
		}
	}
	if raw := strings.TrimSpace(firstField(event.Fields, timeAliases)); raw != "" {
		for _, layout := range gatewayTimeLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				utc := ts.UTC()
				data.GatewayTime = &utc
				break
			}
		}
	}
	return data
}

func firstField(fields map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if value, ok := fields[alias]; ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func copyFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for key, value := range fields {
		out[key] = value
	}
	return out
}
