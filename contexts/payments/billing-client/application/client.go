package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	domainerrors "paygate/contexts/payments/billing-client/domain/errors"
	"paygate/contexts/payments/billing-client/ports"
	"paygate/contexts/payments/webhook-engine/domain/entities"
	webhookports "paygate/contexts/payments/webhook-engine/ports"
)

// Large bills must go out with corporate banking enabled; threshold is in the
// smallest currency unit.
const corporateBankingThresholdCents = 30000

// Client issues the outbound gateway calls: bill creation, transaction
// queries, and category management. All gateway endpoints are form-encoded
// POSTs that answer JSON (sometimes an array, sometimes an object). The
// client also implements the webhook engine's BillLookup port by reading a
// bill's transactions, which is how conflicting notifications get their
// authoritative answer.
type Client struct {
	BaseURL      string
	SecretKey    string
	CategoryCode string
	HTTP         ports.HTTPDoer
	Logger       *slog.Logger
}

func (c Client) CreateBill(ctx context.Context, input ports.CreateBillInput) (ports.Bill, error) {
	if strings.TrimSpace(input.Name) == "" ||
		strings.TrimSpace(input.Email) == "" ||
		strings.TrimSpace(input.OrderID) == "" ||
		input.Amount <= 0 {
		return ports.Bill{}, domainerrors.ErrInvalidInput
	}

	category := strings.TrimSpace(input.CategoryCode)
	if category == "" {
		category = strings.TrimSpace(c.CategoryCode)
	}
	if category == "" {
		return ports.Bill{}, fmt.Errorf("%w: category code is required", domainerrors.ErrInvalidInput)
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = "Payment"
	}

	cents := int64(input.Amount*100 + 0.5)
	form := url.Values{
		"categoryCode":            {category},
		"billName":                {billName(input.OrderID)},
		"billDescription":         {description},
		"billPriceSetting":        {"1"},
		"billPayorInfo":           {"1"},
		"billAmount":              {strconv.FormatInt(cents, 10)},
		"billReturnUrl":           {strings.TrimSpace(input.ReturnURL)},
		"billCallbackUrl":         {strings.TrimSpace(input.CallbackURL)},
		"billExternalReferenceNo": {strings.TrimSpace(input.OrderID)},
		"billTo":                  {strings.TrimSpace(input.Name)},
		"billEmail":               {strings.TrimSpace(input.Email)},
		"billPhone":               {strings.TrimSpace(input.Phone)},
	}
	if cents >= corporateBankingThresholdCents {
		form.Set("enableFPXB2B", "1")
	}

	var rows []map[string]any
	if err := c.post(ctx, "createBill", form, &rows); err != nil {
		return ports.Bill{}, err
	}
	if len(rows) == 0 {
		return ports.Bill{}, fmt.Errorf("%w: createBill answered without a bill code", domainerrors.ErrGatewayRejected)
	}
	billCode := stringValue(rows[0]["BillCode"])
	if billCode == "" {
		return ports.Bill{}, fmt.Errorf("%w: createBill answered without a bill code", domainerrors.ErrGatewayRejected)
	}

	bill := ports.Bill{
		BillCode:   billCode,
		PaymentURL: strings.TrimRight(c.BaseURL, "/") + "/" + billCode,
	}
	ResolveLogger(c.Logger).Info("bill created",
		"event", "gateway_bill_created",
		"module", "payments/billing-client",
		"layer", "application",
		"bill_code", bill.BillCode,
		"order_id", strings.TrimSpace(input.OrderID),
	)
	return bill, nil
}

// GetBillTransactions returns the gateway's transaction list for a bill,
// optionally filtered by a gateway status code ("1".."4").
func (c Client) GetBillTransactions(ctx context.Context, billCode string, statusCode string) ([]ports.BillTransaction, error) {
	if strings.TrimSpace(billCode) == "" {
		return nil, domainerrors.ErrInvalidInput
	}

	form := url.Values{"billCode": {strings.TrimSpace(billCode)}}
	if strings.TrimSpace(statusCode) != "" {
		form.Set("billpaymentStatus", strings.TrimSpace(statusCode))
	}

	var rows []map[string]any
	if err := c.post(ctx, "getBillTransactions", form, &rows); err != nil {
		return nil, err
	}

	transactions := make([]ports.BillTransaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, ports.BillTransaction{
			BillCode:      strings.TrimSpace(billCode),
			OrderID:       stringValue(row["billExternalReferenceNo"]),
			InvoiceNo:     stringValue(row["billpaymentInvoiceNo"]),
			StatusCode:    stringValue(row["billpaymentStatus"]),
			Amount:        floatValue(row["billpaymentAmount"]),
			PaymentDate:   stringValue(row["billPaymentDate"]),
			SettlementRef: stringValue(row["settlementReferenceNo"]),
		})
	}
	return transactions, nil
}

// CheckPaymentStatus reports the bill's effective status: SUCCESS as soon as
// any successful transaction exists, otherwise the latest transaction's
// status, otherwise PENDING for a bill with no transactions yet.
func (c Client) CheckPaymentStatus(ctx context.Context, billCode string) (entities.PaymentStatus, error) {
	successful, err := c.GetBillTransactions(ctx, billCode, "1")
	if err != nil {
		return entities.StatusUnknown, err
	}
	if len(successful) > 0 {
		return entities.StatusSuccess, nil
	}

	all, err := c.GetBillTransactions(ctx, billCode, "")
	if err != nil {
		return entities.StatusUnknown, err
	}
	if len(all) == 0 {
		return entities.StatusPending, nil
	}
	return entities.StatusFromGatewayCode(all[len(all)-1].StatusCode), nil
}

func (c Client) CreateCategory(ctx context.Context, name string, description string) (ports.Category, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(description) == "" {
		return ports.Category{}, domainerrors.ErrInvalidInput
	}

	form := url.Values{
		"catname":        {strings.TrimSpace(name)},
		"catdescription": {strings.TrimSpace(description)},
	}
	var rows []map[string]any
	if err := c.post(ctx, "createCategory", form, &rows); err != nil {
		return ports.Category{}, err
	}
	if len(rows) == 0 {
		return ports.Category{}, fmt.Errorf("%w: createCategory answered without a category code", domainerrors.ErrGatewayRejected)
	}
	code := stringValue(rows[0]["CategoryCode"])
	if code == "" {
		return ports.Category{}, fmt.Errorf("%w: createCategory answered without a category code", domainerrors.ErrGatewayRejected)
	}
	return ports.Category{
		CategoryCode: code,
		Name:         strings.TrimSpace(name),
		Description:  strings.TrimSpace(description),
	}, nil
}

func (c Client) GetCategory(ctx context.Context, categoryCode string) (ports.Category, error) {
	if strings.TrimSpace(categoryCode) == "" {
		return ports.Category{}, domainerrors.ErrInvalidInput
	}

	form := url.Values{"categoryCode": {strings.TrimSpace(categoryCode)}}
	var rows []map[string]any
	if err := c.post(ctx, "getCategoryDetails", form, &rows); err != nil {
		return ports.Category{}, err
	}
	if len(rows) == 0 {
		return ports.Category{}, fmt.Errorf("%w: unknown category %q", domainerrors.ErrGatewayRejected, categoryCode)
	}
	return ports.Category{
		CategoryCode: strings.TrimSpace(categoryCode),
		Name:         stringValue(rows[0]["categoryName"]),
		Description:  stringValue(rows[0]["categoryDescription"]),
		StatusCode:   stringValue(rows[0]["categoryStatus"]),
	}, nil
}

// LookupBill implements the webhook engine's reconciliation collaborator. A
// bill with no transactions is reported as PENDING, not as missing: the
// gateway treats unknown bill codes and empty bills identically on this
// endpoint, and a fail-closed caller only needs to know no SUCCESS exists.
func (c Client) LookupBill(ctx context.Context, billCode string) (webhookports.BillSnapshot, error) {
	transactions, err := c.GetBillTransactions(ctx, billCode, "")
	if err != nil {
		return webhookports.BillSnapshot{}, err
	}

	snapshot := webhookports.BillSnapshot{
		BillCode: strings.TrimSpace(billCode),
		Status:   entities.StatusPending,
	}
	for _, transaction := range transactions {
		status := entities.StatusFromGatewayCode(transaction.StatusCode)
		snapshot.Status = status
		snapshot.TransactionID = transaction.InvoiceNo
		amount := transaction.Amount / 100
		snapshot.Amount = &amount
		if status == entities.StatusSuccess {
			break
		}
	}
	return snapshot, nil
}

func (c Client) post(ctx context.Context, endpoint string, form url.Values, out *[]map[string]any) error {
	form.Set("userSecretKey", c.SecretKey)

	target := strings.TrimRight(c.BaseURL, "/") + "/index.php/api/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrGatewayTimeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", domainerrors.ErrGatewayTimeout, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s answered %d", domainerrors.ErrGatewayRejected, endpoint, resp.StatusCode)
	}

	*out = parseGatewayJSON(body)
	return nil
}

// parseGatewayJSON tolerates the gateway's shape drift: some endpoints answer
// a JSON array, some a single object, some a {"data": [...]} wrapper, and
// failures occasionally come back as bare text.
func parseGatewayJSON(body []byte) []map[string]any {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows
	}
	var object map[string]any
	if err := json.Unmarshal(body, &object); err == nil {
		if data, ok := object["data"].([]any); ok {
			out := make([]map[string]any, 0, len(data))
			for _, item := range data {
				if row, ok := item.(map[string]any); ok {
					out = append(out, row)
				}
			}
			return out
		}
		return []map[string]any{object}
	}
	return nil
}

func billName(orderID string) string {
	// billName is capped at 30 characters by the gateway.
	name := "bill-" + strings.TrimSpace(orderID)
	if len(name) > 30 {
		name = name[:30]
	}
	return name
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func floatValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case string:
		parsed, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return parsed
	default:
		return 0
	}
}

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

var _ webhookports.BillLookup = Client{}
