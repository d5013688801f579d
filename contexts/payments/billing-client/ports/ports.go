package ports

import "net/http"

// HTTPDoer is the outbound transport seam; *http.Client satisfies it and
// tests substitute a recorder.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CreateBillInput carries everything the gateway needs to open a bill.
// Amounts are in currency units; the client converts to the gateway's
// smallest-unit representation on the wire.
type CreateBillInput struct {
	CategoryCode string
	Name         string
	Email        string
	Phone        string
	Amount       float64
	OrderID      string
	Description  string
	ReturnURL    string
	CallbackURL  string
}

type Bill struct {
	BillCode   string
	PaymentURL string
}

type BillTransaction struct {
	BillCode      string
	OrderID       string
	InvoiceNo     string
	StatusCode    string
	Amount        float64
	PaymentDate   string
	SettlementRef string
}

type Category struct {
	CategoryCode string
	Name         string
	Description  string
	StatusCode   string
}
