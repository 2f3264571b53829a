package stripecard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/payment"

	"github.com/shopspring/decimal"
)

func testConfiguration() *integration.Configuration {
	return &integration.Configuration{
		ModuleCode: constants.ModuleCodeStripeCard,
		Active:     true,
		Keys: map[string]string{
			"secretKey":      "sk_test_123",
			"publishableKey": "pk_test_123",
		},
	}
}

func testRequest() payment.Request {
	return payment.Request{
		OrderNo:  "ORDER-1001",
		Amount:   decimal.RequireFromString("12.88"),
		Currency: "USD",
		Card: &payment.Card{
			Number:      "4111111111111111",
			Holder:      "JOHN DOE",
			ExpiryMonth: "08",
			ExpiryYear:  "2030",
			CVV:         "123",
		},
	}
}

func TestValidateConfigurationCollectsMissingKeys(t *testing.T) {
	module := New()
	err := module.ValidateConfiguration(&integration.Configuration{ModuleCode: constants.ModuleCodeStripeCard})
	if !errors.Is(err, integration.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	var fieldsErr *integration.FieldsError
	if !errors.As(err, &fieldsErr) {
		t.Fatalf("expected fields error, got %v", err)
	}
	if len(fieldsErr.Fields) != 2 {
		t.Fatalf("unexpected missing fields: %v", fieldsErr.Fields)
	}
}

func TestAuthorizeUsesManualCapture(t *testing.T) {
	var gotPath, gotCaptureMethod, gotAmount, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotPath = r.URL.Path
		gotCaptureMethod = r.PostFormValue("capture_method")
		gotAmount = r.PostFormValue("amount")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pi_test_1",
			"status": "requires_capture",
		})
	}))
	defer server.Close()

	module := &Module{APIBaseURL: server.URL}
	result, err := module.Authorize(context.Background(), testConfiguration(), testRequest())
	if err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if gotPath != "/v1/payment_intents" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotCaptureMethod != "manual" {
		t.Fatalf("unexpected capture method: %s", gotCaptureMethod)
	}
	if gotAmount != "1288" {
		t.Fatalf("unexpected minor amount: %s", gotAmount)
	}
	if gotAuth != "Bearer sk_test_123" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if result.TransactionType != constants.TransactionTypeAuthorize {
		t.Fatalf("unexpected transaction type: %s", result.TransactionType)
	}
	if result.ProviderRef != "pi_test_1" {
		t.Fatalf("unexpected provider ref: %s", result.ProviderRef)
	}
}

func TestAuthorizeAndCaptureZeroDecimalCurrency(t *testing.T) {
	var gotAmount, gotCaptureMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotAmount = r.PostFormValue("amount")
		gotCaptureMethod = r.PostFormValue("capture_method")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pi_test_2",
			"status": "succeeded",
		})
	}))
	defer server.Close()

	module := &Module{APIBaseURL: server.URL}
	req := testRequest()
	req.Amount = decimal.RequireFromString("1288")
	req.Currency = "JPY"
	result, err := module.AuthorizeAndCapture(context.Background(), testConfiguration(), req)
	if err != nil {
		t.Fatalf("authorize and capture failed: %v", err)
	}
	if gotAmount != "1288" {
		t.Fatalf("unexpected minor amount: %s", gotAmount)
	}
	if gotCaptureMethod != "automatic" {
		t.Fatalf("unexpected capture method: %s", gotCaptureMethod)
	}
	if result.TransactionType != constants.TransactionTypeAuthorizeCapture {
		t.Fatalf("unexpected transaction type: %s", result.TransactionType)
	}
}

func TestCaptureHitsCaptureEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pi_test_3",
			"status": "succeeded",
		})
	}))
	defer server.Close()

	module := &Module{APIBaseURL: server.URL}
	prior := payment.Prior{ProviderRef: "pi_test_3", TransactionType: constants.TransactionTypeAuthorize}
	req := testRequest()
	req.Card = nil
	result, err := module.Capture(context.Background(), testConfiguration(), prior, req)
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if gotPath != "/v1/payment_intents/pi_test_3/capture" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if result.TransactionType != constants.TransactionTypeCapture {
		t.Fatalf("unexpected transaction type: %s", result.TransactionType)
	}
}

func TestRefundCreatesRefund(t *testing.T) {
	var gotIntent, gotAmount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotIntent = r.PostFormValue("payment_intent")
		gotAmount = r.PostFormValue("amount")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "re_test_1",
			"status": "succeeded",
		})
	}))
	defer server.Close()

	module := &Module{APIBaseURL: server.URL}
	prior := payment.Prior{ProviderRef: "pi_test_4", TransactionType: constants.TransactionTypeAuthorizeCapture}
	result, err := module.Refund(context.Background(), testConfiguration(), prior, payment.RefundRequest{
		OrderNo:  "ORDER-1001",
		Amount:   decimal.RequireFromString("5.00"),
		Currency: "USD",
		Partial:  true,
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if gotIntent != "pi_test_4" {
		t.Fatalf("unexpected payment intent: %s", gotIntent)
	}
	if gotAmount != "500" {
		t.Fatalf("unexpected minor amount: %s", gotAmount)
	}
	if result.ProviderRef != "re_test_1" {
		t.Fatalf("unexpected provider ref: %s", result.ProviderRef)
	}
}

func TestProviderErrorWrapsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "Your card was declined."},
		})
	}))
	defer server.Close()

	module := &Module{APIBaseURL: server.URL}
	_, err := module.Authorize(context.Background(), testConfiguration(), testRequest())
	if !errors.Is(err, integration.ErrProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
}
