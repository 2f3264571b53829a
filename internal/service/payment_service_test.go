package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/models"
	"github.com/commerce-next/internal/payment"
	"github.com/commerce-next/internal/payment/moneyorder"
	"github.com/commerce-next/internal/queue"
	"github.com/commerce-next/internal/repository"
	"github.com/commerce-next/internal/secret"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// stubModule 记录调用的支付模块桩
type stubModule struct {
	code      string
	calls     []string
	failNext  error
	refundRef string
}

func (m *stubModule) Code() string { return m.code }

func (m *stubModule) ValidateConfiguration(cfg *integration.Configuration) error { return nil }

func (m *stubModule) result(txnType, ref string, req payment.Request) (*payment.Result, error) {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return nil, err
	}
	m.calls = append(m.calls, txnType)
	return &payment.Result{
		TransactionType: txnType,
		ProviderRef:     ref,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Details:         map[string]string{"status": "ok"},
	}, nil
}

func (m *stubModule) InitTransaction(ctx context.Context, cfg *integration.Configuration, req payment.Request) (*payment.Result, error) {
	return m.result(constants.TransactionTypeInit, "init-1", req)
}

func (m *stubModule) Authorize(ctx context.Context, cfg *integration.Configuration, req payment.Request) (*payment.Result, error) {
	return m.result(constants.TransactionTypeAuthorize, "auth-1", req)
}

func (m *stubModule) AuthorizeAndCapture(ctx context.Context, cfg *integration.Configuration, req payment.Request) (*payment.Result, error) {
	return m.result(constants.TransactionTypeAuthorizeCapture, "authcap-1", req)
}

func (m *stubModule) Capture(ctx context.Context, cfg *integration.Configuration, prior payment.Prior, req payment.Request) (*payment.Result, error) {
	return m.result(constants.TransactionTypeCapture, "cap-1", req)
}

func (m *stubModule) Refund(ctx context.Context, cfg *integration.Configuration, prior payment.Prior, req payment.RefundRequest) (*payment.Result, error) {
	ref := m.refundRef
	if ref == "" {
		ref = "ref-1"
	}
	return m.result(constants.TransactionTypeRefund, ref, payment.Request{Amount: req.Amount, Currency: req.Currency})
}

func setupPaymentServiceTest(t *testing.T) (*PaymentService, *stubModule, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.MerchantStore{},
		&models.Order{},
		&models.OrderTotal{},
		&models.OrderStatusHistory{},
		&models.Transaction{},
		&models.MerchantConfiguration{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cipher, err := secret.NewCipher("test-passphrase", "test-salt")
	if err != nil {
		t.Fatalf("create cipher failed: %v", err)
	}
	moduleConfigSvc := NewModuleConfigurationService(repository.NewMerchantConfigurationRepository(db), cipher)

	stub := &stubModule{code: constants.ModuleCodeStripeCard}
	registry := payment.NewRegistry()
	registry.Register(stub)
	registry.Register(moneyorder.New())

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("create queue client failed: %v", err)
	}
	svc := NewPaymentService(
		repository.NewOrderRepository(db),
		repository.NewTransactionRepository(db),
		moduleConfigSvc,
		NewCardValidator(true),
		registry,
		queueClient,
	)

	if err := moduleConfigSvc.SavePaymentModuleConfiguration(1, &integration.Configuration{
		ModuleCode: constants.ModuleCodeStripeCard,
		Active:     true,
		Keys:       map[string]string{"secretKey": "sk", "publishableKey": "pk"},
	}); err != nil {
		t.Fatalf("save stripecard config failed: %v", err)
	}
	if err := moduleConfigSvc.SavePaymentModuleConfiguration(1, &integration.Configuration{
		ModuleCode: constants.ModuleCodeMoneyOrder,
		Active:     true,
		Keys:       map[string]string{"address": "100 Main St"},
	}); err != nil {
		t.Fatalf("save moneyorder config failed: %v", err)
	}
	return svc, stub, db
}

func seedOrder(t *testing.T, db *gorm.DB, total string) *models.Order {
	t.Helper()
	order := models.Order{
		OrderNo:       fmt.Sprintf("ORDER-%d", time.Now().UnixNano()),
		StoreID:       1,
		CustomerEmail: "buyer@example.com",
		Status:        constants.OrderStatusOrdered,
		Currency:      "USD",
		TotalAmount:   models.NewMoneyFromDecimal(decimal.RequireFromString(total)),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return &order
}

func cardPayment(moduleCode, txnType, amount string) *models.Payment {
	return &models.Payment{
		ModuleCode:      moduleCode,
		PaymentType:     constants.PaymentTypeCreditCard,
		TransactionType: txnType,
		Amount:          models.NewMoneyFromDecimal(decimal.RequireFromString(amount)),
		Currency:        "USD",
		Card: &models.CreditCard{
			CardNumber:  "4111111111111111",
			CardHolder:  "JOHN DOE",
			ExpiryMonth: "08",
			ExpiryYear:  "2030",
			CVV:         "123",
		},
	}
}

func reloadOrder(t *testing.T, db *gorm.DB, id uint) *models.Order {
	t.Helper()
	var order models.Order
	if err := db.Preload("Totals").Preload("StatusHistory").First(&order, id).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return &order
}

func TestProcessPaymentAuthorizeCaptureMarksProcessed(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	transaction, err := svc.ProcessPayment(ProcessPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Payment: cardPayment(constants.ModuleCodeStripeCard, "", "50.00"),
	})
	if err != nil {
		t.Fatalf("process payment failed: %v", err)
	}
	if transaction.TransactionType != constants.TransactionTypeAuthorizeCapture {
		t.Fatalf("unexpected transaction type: %s", transaction.TransactionType)
	}
	if transaction.ID == 0 {
		t.Fatal("expected persisted transaction")
	}

	reloaded := reloadOrder(t, db, order.ID)
	if reloaded.Status != constants.OrderStatusProcessed {
		t.Fatalf("unexpected order status: %s", reloaded.Status)
	}
	if len(reloaded.StatusHistory) != 1 {
		t.Fatalf("expected one history entry, got %d", len(reloaded.StatusHistory))
	}
}

func TestProcessPaymentMoneyOrderStaysOrdered(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	transaction, err := svc.ProcessPayment(ProcessPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Payment: &models.Payment{
			ModuleCode:  constants.ModuleCodeMoneyOrder,
			PaymentType: constants.PaymentTypeMoneyOrder,
			Amount:      models.NewMoneyFromDecimal(decimal.RequireFromString("50.00")),
			Currency:    "USD",
		},
	})
	if err != nil {
		t.Fatalf("process payment failed: %v", err)
	}
	if transaction.TransactionType != constants.TransactionTypeAuthorizeCapture {
		t.Fatalf("unexpected transaction type: %s", transaction.TransactionType)
	}
	reloaded := reloadOrder(t, db, order.ID)
	if reloaded.Status != constants.OrderStatusOrdered {
		t.Fatalf("money order must stay ordered, got %s", reloaded.Status)
	}
}

func TestProcessPaymentOfflineTypeViaOtherModuleStaysOrdered(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	_, err := svc.ProcessPayment(ProcessPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Payment: &models.Payment{
			ModuleCode:  constants.ModuleCodeStripeCard,
			PaymentType: constants.PaymentTypeMoneyOrder,
			Amount:      models.NewMoneyFromDecimal(decimal.RequireFromString("50.00")),
			Currency:    "USD",
		},
	})
	if err != nil {
		t.Fatalf("process payment failed: %v", err)
	}
	reloaded := reloadOrder(t, db, order.ID)
	if reloaded.Status != constants.OrderStatusOrdered {
		t.Fatalf("offline payment type must stay ordered, got %s", reloaded.Status)
	}
}

func TestProcessPaymentInitNotPersisted(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	transaction, err := svc.ProcessPayment(ProcessPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Payment: cardPayment(constants.ModuleCodeStripeCard, constants.TransactionTypeInit, "50.00"),
	})
	if err != nil {
		t.Fatalf("process payment failed: %v", err)
	}
	if transaction.ID != 0 {
		t.Fatal("init transaction must not be persisted")
	}
	var count int64
	if err := db.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no persisted transactions, got %d", count)
	}
}

func TestProcessPaymentUnconfiguredModule(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	p := cardPayment(constants.ModuleCodeStripeCard, "", "50.00")
	p.ModuleCode = "unknown"
	_, err := svc.ProcessPayment(ProcessPaymentInput{StoreID: 1, OrderID: order.ID, Payment: p})
	if !errors.Is(err, ErrModuleNotConfigured) {
		t.Fatalf("expected module not configured, got %v", err)
	}
}

func TestProcessPaymentInactiveModule(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	if err := svc.moduleConfigSvc.SavePaymentModuleConfiguration(1, &integration.Configuration{
		ModuleCode: constants.ModuleCodeStripeCard,
		Active:     false,
		Keys:       map[string]string{"secretKey": "sk", "publishableKey": "pk"},
	}); err != nil {
		t.Fatalf("save config failed: %v", err)
	}
	_, err := svc.ProcessPayment(ProcessPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Payment: cardPayment(constants.ModuleCodeStripeCard, "", "50.00"),
	})
	if !errors.Is(err, ErrModuleInactive) {
		t.Fatalf("expected module inactive, got %v", err)
	}
}

func TestProcessPaymentInvalidCardBlocksProvider(t *testing.T) {
	svc, stub, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	p := cardPayment(constants.ModuleCodeStripeCard, "", "50.00")
	p.Card.CardNumber = "4111111111111112"
	_, err := svc.ProcessPayment(ProcessPaymentInput{StoreID: 1, OrderID: order.ID, Payment: p})
	if !errors.Is(err, integration.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("provider must not be called, got %v", stub.calls)
	}
}

func TestProcessCapturePayment(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	if _, err := svc.ProcessPayment(ProcessPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Payment: cardPayment(constants.ModuleCodeStripeCard, constants.TransactionTypeAuthorize, "50.00"),
	}); err != nil {
		t.Fatalf("authorize failed: %v", err)
	}

	transaction, err := svc.ProcessCapturePayment(CapturePaymentInput{StoreID: 1, OrderID: order.ID})
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if transaction.TransactionType != constants.TransactionTypeCapture {
		t.Fatalf("unexpected transaction type: %s", transaction.TransactionType)
	}
	reloaded := reloadOrder(t, db, order.ID)
	if reloaded.Status != constants.OrderStatusProcessed {
		t.Fatalf("unexpected order status: %s", reloaded.Status)
	}
}

func TestProcessCapturePaymentWithoutAuthorize(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	_, err := svc.ProcessCapturePayment(CapturePaymentInput{StoreID: 1, OrderID: order.ID})
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected transaction not found, got %v", err)
	}
	reloaded := reloadOrder(t, db, order.ID)
	if reloaded.Status != constants.OrderStatusOrdered {
		t.Fatalf("order state must not change, got %s", reloaded.Status)
	}
}

func TestProcessCaptureTwiceRejected(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	if _, err := svc.ProcessPayment(ProcessPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Payment: cardPayment(constants.ModuleCodeStripeCard, constants.TransactionTypeAuthorize, "50.00"),
	}); err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if _, err := svc.ProcessCapturePayment(CapturePaymentInput{StoreID: 1, OrderID: order.ID}); err != nil {
		t.Fatalf("first capture failed: %v", err)
	}
	_, err := svc.ProcessCapturePayment(CapturePaymentInput{StoreID: 1, OrderID: order.ID})
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("second capture must fail, got %v", err)
	}
}

func TestProcessRefundExceedingTotalRejectedBeforeProvider(t *testing.T) {
	svc, stub, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	if _, err := svc.ProcessPayment(ProcessPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Payment: cardPayment(constants.ModuleCodeStripeCard, "", "50.00"),
	}); err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	providerCalls := len(stub.calls)

	_, err := svc.ProcessRefund(RefundPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("60.00"),
	})
	if !errors.Is(err, ErrRefundExceedsTotal) {
		t.Fatalf("expected refund exceeds total, got %v", err)
	}
	if len(stub.calls) != providerCalls {
		t.Fatal("provider must not be called for oversized refund")
	}
}

func TestProcessRefundPartial(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	if _, err := svc.ProcessPayment(ProcessPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Payment: cardPayment(constants.ModuleCodeStripeCard, "", "50.00"),
	}); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	transaction, err := svc.ProcessRefund(RefundPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("20.00"),
	})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if transaction.TransactionType != constants.TransactionTypeRefund {
		t.Fatalf("unexpected transaction type: %s", transaction.TransactionType)
	}

	reloaded := reloadOrder(t, db, order.ID)
	if reloaded.Status != constants.OrderStatusRefunded {
		t.Fatalf("unexpected order status: %s", reloaded.Status)
	}
	if !reloaded.TotalAmount.Decimal.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("unexpected order total: %s", reloaded.TotalAmount.StringFixed(2))
	}
	foundRefundLine := false
	for _, total := range reloaded.Totals {
		if total.Code == constants.OrderTotalCodeRefund {
			foundRefundLine = true
			if !total.Amount.Decimal.Equal(decimal.RequireFromString("-20.00")) {
				t.Fatalf("unexpected refund line amount: %s", total.Amount.StringFixed(2))
			}
		}
	}
	if !foundRefundLine {
		t.Fatal("expected refund total line")
	}
}

func TestProcessRefundWithoutRefundable(t *testing.T) {
	svc, _, db := setupPaymentServiceTest(t)
	order := seedOrder(t, db, "50.00")

	_, err := svc.ProcessRefund(RefundPaymentInput{
		StoreID: 1,
		OrderID: order.ID,
		Amount:  decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected transaction not found, got %v", err)
	}
}
