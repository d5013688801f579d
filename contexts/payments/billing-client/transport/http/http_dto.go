package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateBillRequest struct {
	CategoryCode string  `json:"category_code,omitempty"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Amount       float64 `json:"amount"`
	OrderID      string  `json:"order_id"`
	Description  string  `json:"description,omitempty"`
	ReturnURL    string  `json:"return_url,omitempty"`
	CallbackURL  string  `json:"callback_url,omitempty"`
}

type BillDTO struct {
	BillCode   string `json:"bill_code"`
	PaymentURL string `json:"payment_url"`
}

type CreateBillResponse struct {
	Status string  `json:"status"`
	Data   BillDTO `json:"data"`
}

type TransactionDTO struct {
	OrderID       string  `json:"order_id,omitempty"`
	InvoiceNo     string  `json:"invoice_no,omitempty"`
	StatusCode    string  `json:"status_code"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date,omitempty"`
	SettlementRef string  `json:"settlement_ref,omitempty"`
}

type ListTransactionsResponse struct {
	Status string           `json:"status"`
	Data   []TransactionDTO `json:"data"`
}
