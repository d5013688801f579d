package errors

import "errors"

var (
	ErrInvalidInput    = errors.New("gateway request input is invalid")
	ErrGatewayRejected = errors.New("gateway rejected the request")
	ErrGatewayTimeout  = errors.New("gateway did not answer within the timeout")
)
