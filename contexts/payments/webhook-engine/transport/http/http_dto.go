package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CallbackResponse struct {
	Status        string   `json:"status"`
	Applied       bool     `json:"applied"`
	Reason        string   `json:"reason,omitempty"`
	BillCode      string   `json:"bill_code"`
	PaymentStatus string   `json:"payment_status"`
	TransitionID  string   `json:"transition_id,omitempty"`
	HandlerErrors []string `json:"handler_errors,omitempty"`
}

type TransitionDTO struct {
	TransitionID  string `json:"transition_id"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	TransactionID string `json:"transaction_id,omitempty"`
	Source        string `json:"source"`
	NoOp          bool   `json:"no_op,omitempty"`
	AppliedAt     string `json:"applied_at"`
}

type PaymentDTO struct {
	BillCode          string          `json:"bill_code"`
	CurrentStatus     string          `json:"current_status"`
	Amount            *float64        `json:"amount,omitempty"`
	OrderID           string          `json:"order_id,omitempty"`
	LastTransactionID string          `json:"last_transaction_id,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
	History           []TransitionDTO `json:"history"`
}

type GetPaymentResponse struct {
	Status string     `json:"status"`
	Data   PaymentDTO `json:"data"`
}

type SoftDeleteResponse struct {
	Status string `json:"status"`
}
