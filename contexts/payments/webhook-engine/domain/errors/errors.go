package errors

import "errors"

var (
	ErrMalformedPayload          = errors.New("notification payload is malformed")
	ErrMissingField              = errors.New("required notification field is missing")
	ErrInvalidAmount             = errors.New("notification amount is not a non-negative decimal")
	ErrSignatureVerification     = errors.New("notification signature verification failed")
	ErrConflict                  = errors.New("status transition conflicts with stored payment state")
	ErrReconciliationUnavailable = errors.New("authoritative bill status could not be fetched")
	ErrBillNotFound              = errors.New("bill is not known to the gateway")
	ErrPaymentNotFound           = errors.New("payment record not found")
	ErrStorageUnavailable        = errors.New("payment store is unavailable")
)
