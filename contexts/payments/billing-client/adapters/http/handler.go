package httpadapter

import (
	"context"
	"log/slog"

	"paygate/contexts/payments/billing-client/application"
	"paygate/contexts/payments/billing-client/ports"
	httptransport "paygate/contexts/payments/billing-client/transport/http"
)

type Handler struct {
	Client application.Client
	Logger *slog.Logger
}

// CreateBillHandler godoc
// @Summary Create a gateway bill
// @Tags billing
// @Accept json
// @Produce json
// @Success 201 {object} httptransport.CreateBillResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /v1/bills [post]
func (h Handler) CreateBillHandler(ctx context.Context, req httptransport.CreateBillRequest) (httptransport.CreateBillResponse, error) {
	bill, err := h.Client.CreateBill(ctx, ports.CreateBillInput{
		CategoryCode: req.CategoryCode,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Amount:       req.Amount,
		OrderID:      req.OrderID,
		Description:  req.Description,
		ReturnURL:    req.ReturnURL,
		CallbackURL:  req.CallbackURL,
	})
	if err != nil {
		return httptransport.CreateBillResponse{}, err
	}
	return httptransport.CreateBillResponse{
		Status: "success",
		Data: httptransport.BillDTO{
			BillCode:   bill.BillCode,
			PaymentURL: bill.PaymentURL,
		},
	}, nil
}

// ListTransactionsHandler godoc
// @Summary List a bill's gateway transactions
// @Tags billing
// @Produce json
// @Param bill_code path string true "Gateway bill code"
// @Param status query string false "Gateway status code filter (1-4)"
// @Success 200 {object} httptransport.ListTransactionsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /v1/bills/{bill_code}/transactions [get]
func (h Handler) ListTransactionsHandler(ctx context.Context, billCode string, statusCode string) (httptransport.ListTransactionsResponse, error) {
	transactions, err := h.Client.GetBillTransactions(ctx, billCode, statusCode)
	if err != nil {
		return httptransport.ListTransactionsResponse{}, err
	}
	resp := httptransport.ListTransactionsResponse{
		Status: "success",
		Data:   make([]httptransport.TransactionDTO, 0, len(transactions)),
	}
	for _, transaction := range transactions {
		resp.Data = append(resp.Data, httptransport.TransactionDTO{
			OrderID:       transaction.OrderID,
			InvoiceNo:     transaction.InvoiceNo,
			StatusCode:    transaction.StatusCode,
			Amount:        transaction.Amount,
			PaymentDate:   transaction.PaymentDate,
			SettlementRef: transaction.SettlementRef,
		})
	}
	return resp, nil
}
