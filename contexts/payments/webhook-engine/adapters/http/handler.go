package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"paygate/contexts/payments/webhook-engine/application"
	"paygate/contexts/payments/webhook-engine/domain/entities"
	httptransport "paygate/contexts/payments/webhook-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// ProcessCallbackHandler godoc
// @Summary Ingest a payment gateway notification
// @Description Accepts a form-encoded or JSON webhook body and applies it exactly once to the payment record.
// @Tags payments
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Success 200 {object} httptransport.CallbackResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /callbacks/payment [post]
func (h Handler) ProcessCallbackHandler(ctx context.Context, body []byte, contentType string) (httptransport.CallbackResponse, error) {
	result, err := h.Service.ProcessCallback(ctx, body, contentType)
	if err != nil {
		return httptransport.CallbackResponse{}, err
	}
	return toCallbackResponse(result), nil
}

// GetPaymentHandler godoc
// @Summary Get a payment record
// @Tags payments
// @Produce json
// @Param bill_code path string true "Gateway bill code"
// @Success 200 {object} httptransport.GetPaymentResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/payments/{bill_code} [get]
func (h Handler) GetPaymentHandler(ctx context.Context, billCode string) (httptransport.GetPaymentResponse, error) {
	record, err := h.Service.GetPayment(ctx, billCode)
	if err != nil {
		return httptransport.GetPaymentResponse{}, err
	}
	return httptransport.GetPaymentResponse{
		Status: "success",
		Data:   toPaymentDTO(record),
	}, nil
}

// SoftDeletePaymentHandler godoc
// @Summary Soft-delete a payment record
// @Description Marks the record inactive; its audit history is retained.
// @Tags payments
// @Produce json
// @Param bill_code path string true "Gateway bill code"
// @Success 200 {object} httptransport.SoftDeleteResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/payments/{bill_code} [delete]
func (h Handler) SoftDeletePaymentHandler(ctx context.Context, billCode string) (httptransport.SoftDeleteResponse, error) {
	if err := h.Service.SoftDeletePayment(ctx, billCode); err != nil {
		return httptransport.SoftDeleteResponse{}, err
	}
	return httptransport.SoftDeleteResponse{Status: "success"}, nil
}

func toCallbackResponse(result application.ProcessResult) httptransport.CallbackResponse {
	resp := httptransport.CallbackResponse{
		Status:        "success",
		Applied:       result.Applied,
		Reason:        result.Reason,
		BillCode:      result.Record.BillCode,
		PaymentStatus: string(result.Record.CurrentStatus),
		TransitionID:  result.Transition.TransitionID,
	}
	for _, handlerErr := range result.HandlerErrors {
		resp.HandlerErrors = append(resp.HandlerErrors, handlerErr.Error())
	}
	return resp
}

func toPaymentDTO(record entities.PaymentRecord) httptransport.PaymentDTO {
	dto := httptransport.PaymentDTO{
		BillCode:          record.BillCode,
		CurrentStatus:     string(record.CurrentStatus),
		Amount:            record.Amount,
		OrderID:           record.OrderID,
		LastTransactionID: record.LastTransactionID,
		CreatedAt:         record.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         record.UpdatedAt.UTC().Format(time.RFC3339),
		History:           make([]httptransport.TransitionDTO, 0, len(record.History)),
	}
	for _, transition := range record.History {
		dto.History = append(dto.History, httptransport.TransitionDTO{
			TransitionID:  transition.TransitionID,
			FromStatus:    string(transition.FromStatus),
			ToStatus:      string(transition.ToStatus),
			TransactionID: transition.TransactionID,
			Source:        string(transition.Source),
			NoOp:          transition.NoOp,
			AppliedAt:     transition.AppliedAt.UTC().Format(time.RFC3339),
		})
	}
	return dto
}
