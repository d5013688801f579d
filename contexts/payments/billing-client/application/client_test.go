package application_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paygate/contexts/payments/billing-client/application"
	domainerrors "paygate/contexts/payments/billing-client/domain/errors"
	"paygate/contexts/payments/billing-client/ports"
	"paygate/contexts/payments/webhook-engine/domain/entities"
)

type capturedRequest struct {
	path string
	form map[string]string
}

func gatewayStub(t *testing.T, responses map[string]string, captured *[]capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("gateway stub parse form: %v", err)
		}
		form := make(map[string]string, len(r.PostForm))
		for key := range r.PostForm {
			form[key] = r.PostForm.Get(key)
		}
		if captured != nil {
			*captured = append(*captured, capturedRequest{path: r.URL.Path, form: form})
		}

		endpoint := strings.TrimPrefix(r.URL.Path, "/index.php/api/")
		body, ok := responses[endpoint]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestCreateBillPostsFormAndParsesBillCode(t *testing.T) {
	var captured []capturedRequest
	server := gatewayStub(t, map[string]string{
		"createBill": `[{"BillCode":"gcbhict9"}]`,
	}, &captured)
	defer server.Close()

	client := application.Client{
		BaseURL:      server.URL,
		SecretKey:    "sk-test",
		CategoryCode: "cat-1",
		HTTP:         server.Client(),
	}

	bill, err := client.CreateBill(context.Background(), ports.CreateBillInput{
		Name:        "Ali",
		Email:       "ali@example.com",
		Phone:       "0123456789",
		OrderID:     "ORD-1",
		Amount:      25.50,
		Description: "March invoice",
		ReturnURL:   "https://shop.example.com/return",
		CallbackURL: "https://shop.example.com/callback",
	})
	if err != nil {
		t.Fatalf("create bill failed: %v", err)
	}
	if bill.BillCode != "gcbhict9" {
		t.Fatalf("bill code = %q, want gcbhict9", bill.BillCode)
	}
	if bill.PaymentURL != server.URL+"/gcbhict9" {
		t.Fatalf("payment url = %q", bill.PaymentURL)
	}

	if len(captured) != 1 {
		t.Fatalf("gateway called %d times, want 1", len(captured))
	}
	form := captured[0].form
	if captured[0].path != "/index.php/api/createBill" {
		t.Fatalf("path = %q", captured[0].path)
	}
	if form["userSecretKey"] != "sk-test" {
		t.Fatalf("secret key not forwarded")
	}
	if form["billAmount"] != "2550" {
		t.Fatalf("bill amount = %q, want cents 2550", form["billAmount"])
	}
	if form["billExternalReferenceNo"] != "ORD-1" {
		t.Fatalf("external reference = %q, want ORD-1", form["billExternalReferenceNo"])
	}
	if _, set := form["enableFPXB2B"]; set {
		t.Fatalf("corporate banking enabled below the threshold")
	}
}

func TestCreateBillEnablesCorporateBankingAboveThreshold(t *testing.T) {
	var captured []capturedRequest
	server := gatewayStub(t, map[string]string{
		"createBill": `[{"BillCode":"big1"}]`,
	}, &captured)
	defer server.Close()

	client := application.Client{BaseURL: server.URL, SecretKey: "sk", CategoryCode: "cat", HTTP: server.Client()}
	if _, err := client.CreateBill(context.Background(), ports.CreateBillInput{
		Name: "Corp", Email: "finance@example.com", OrderID: "ORD-BIG", Amount: 300.00,
	}); err != nil {
		t.Fatalf("create bill failed: %v", err)
	}
	if captured[0].form["enableFPXB2B"] != "1" {
		t.Fatalf("corporate banking not enabled at threshold amount")
	}
}

func TestCreateBillValidatesInput(t *testing.T) {
	client := application.Client{BaseURL: "http://unused", SecretKey: "sk"}
	cases := map[string]ports.CreateBillInput{
		"missing name":  {Email: "a@b.c", OrderID: "O1", Amount: 10},
		"missing email": {Name: "A", OrderID: "O1", Amount: 10},
		"zero amount":   {Name: "A", Email: "a@b.c", OrderID: "O1"},
		"no category":   {Name: "A", Email: "a@b.c", OrderID: "O1", Amount: 10},
	}
	for name, input := range cases {
		if _, err := client.CreateBill(context.Background(), input); !errors.Is(err, domainerrors.ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestCreateBillRejectedWithoutBillCode(t *testing.T) {
	server := gatewayStub(t, map[string]string{
		"createBill": `[{"msg":"KEY-DID-NOT-EXIST"}]`,
	}, nil)
	defer server.Close()

	client := application.Client{BaseURL: server.URL, SecretKey: "bad", CategoryCode: "cat", HTTP: server.Client()}
	_, err := client.CreateBill(context.Background(), ports.CreateBillInput{
		Name: "A", Email: "a@b.c", OrderID: "O1", Amount: 10,
	})
	if !errors.Is(err, domainerrors.ErrGatewayRejected) {
		t.Fatalf("err = %v, want ErrGatewayRejected", err)
	}
}

func TestGetBillTransactionsMapsRows(t *testing.T) {
	var captured []capturedRequest
	server := gatewayStub(t, map[string]string{
		"getBillTransactions": `[{"billExternalReferenceNo":"ORD-1","billpaymentInvoiceNo":"TP0001","billpaymentStatus":"1","billpaymentAmount":"2550","billPaymentDate":"14-03-2026 09:30:00"}]`,
	}, &captured)
	defer server.Close()

	client := application.Client{BaseURL: server.URL, SecretKey: "sk", HTTP: server.Client()}
	transactions, err := client.GetBillTransactions(context.Background(), "gcbhict9", "1")
	if err != nil {
		t.Fatalf("get bill transactions failed: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(transactions))
	}
	tx := transactions[0]
	if tx.InvoiceNo != "TP0001" || tx.StatusCode != "1" || tx.Amount != 2550 {
		t.Fatalf("transaction mapped wrong: %+v", tx)
	}
	if captured[0].form["billpaymentStatus"] != "1" {
		t.Fatalf("status filter not forwarded")
	}
}

func TestCheckPaymentStatusPrefersSuccess(t *testing.T) {
	server := gatewayStub(t, map[string]string{
		"getBillTransactions": `[{"billpaymentStatus":"1","billpaymentInvoiceNo":"TP1"}]`,
	}, nil)
	defer server.Close()

	client := application.Client{BaseURL: server.URL, SecretKey: "sk", HTTP: server.Client()}
	status, err := client.CheckPaymentStatus(context.Background(), "bill-1")
	if err != nil {
		t.Fatalf("check payment status failed: %v", err)
	}
	if status != entities.StatusSuccess {
		t.Fatalf("status = %s, want SUCCESS", status)
	}
}

func TestCheckPaymentStatusEmptyBillIsPending(t *testing.T) {
	server := gatewayStub(t, map[string]string{
		"getBillTransactions": `[]`,
	}, nil)
	defer server.Close()

	client := application.Client{BaseURL: server.URL, SecretKey: "sk", HTTP: server.Client()}
	status, err := client.CheckPaymentStatus(context.Background(), "bill-1")
	if err != nil {
		t.Fatalf("check payment status failed: %v", err)
	}
	if status != entities.StatusPending {
		t.Fatalf("status = %s, want PENDING", status)
	}
}

func TestLookupBillBuildsSnapshot(t *testing.T) {
	server := gatewayStub(t, map[string]string{
		"getBillTransactions": `[{"billpaymentStatus":"3","billpaymentInvoiceNo":"TP1","billpaymentAmount":"2550"},{"billpaymentStatus":"1","billpaymentInvoiceNo":"TP2","billpaymentAmount":"2550"}]`,
	}, nil)
	defer server.Close()

	client := application.Client{BaseURL: server.URL, SecretKey: "sk", HTTP: server.Client()}
	snapshot, err := client.LookupBill(context.Background(), "gcbhict9")
	if err != nil {
		t.Fatalf("lookup bill failed: %v", err)
	}
	if snapshot.Status != entities.StatusSuccess {
		t.Fatalf("snapshot status = %s, want SUCCESS", snapshot.Status)
	}
	if snapshot.TransactionID != "TP2" {
		t.Fatalf("snapshot transaction = %q, want the successful one", snapshot.TransactionID)
	}
	if snapshot.Amount == nil || *snapshot.Amount != 25.50 {
		t.Fatalf("snapshot amount = %v, want 25.50", snapshot.Amount)
	}
}

func TestPostWrapsTransportFailures(t *testing.T) {
	client := application.Client{BaseURL: "http://127.0.0.1:1", SecretKey: "sk", HTTP: &http.Client{}}
	_, err := client.GetBillTransactions(context.Background(), "bill-1", "")
	if !errors.Is(err, domainerrors.ErrGatewayTimeout) {
		t.Fatalf("err = %v, want ErrGatewayTimeout", err)
	}
}

func TestPostRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := application.Client{BaseURL: server.URL, SecretKey: "sk", HTTP: server.Client()}
	_, err := client.GetBillTransactions(context.Background(), "bill-1", "")
	if !errors.Is(err, domainerrors.ErrGatewayRejected) {
		t.Fatalf("err = %v, want ErrGatewayRejected", err)
	}
}

func TestCreateCategory(t *testing.T) {
	server := gatewayStub(t, map[string]string{
		"createCategory": `[{"CategoryCode":"x7abc"}]`,
	}, nil)
	defer server.Close()

	client := application.Client{BaseURL: server.URL, SecretKey: "sk", HTTP: server.Client()}
	category, err := client.CreateCategory(context.Background(), "Store", "Online store bills")
	if err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	if category.CategoryCode != "x7abc" {
		t.Fatalf("category code = %q, want x7abc", category.CategoryCode)
	}

	if _, err := client.CreateCategory(context.Background(), "", "desc"); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("empty name: err = %v, want ErrInvalidInput", err)
	}
}
