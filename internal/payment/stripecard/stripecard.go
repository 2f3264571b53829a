// Package stripecard 通过 Stripe PaymentIntents 实现卡支付模块。
// 授权使用 capture_method=manual，捕获与退款走对应的 REST 端点。
package stripecard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultAPIBaseURL = "https://api.stripe.com"
	defaultTimeout    = 12 * time.Second
)

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {},
	"CLP": {},
	"DJF": {},
	"GNF": {},
	"JPY": {},
	"KMF": {},
	"KRW": {},
	"MGA": {},
	"PYG": {},
	"RWF": {},
	"UGX": {},
	"VND": {},
	"VUV": {},
	"XAF": {},
	"XOF": {},
	"XPF": {},
}

// Module Stripe 卡支付模块
type Module struct {
	// APIBaseURL 为空时使用 Stripe 生产地址，测试中指向 httptest 服务
	APIBaseURL string
	HTTPClient *http.Client
}

// New 创建模块
func New() *Module {
	return &Module{}
}

// Code 模块代码
func (m *Module) Code() string {
	return constants.ModuleCodeStripeCard
}

// ValidateConfiguration 校验模块配置，缺失字段聚合返回
func (m *Module) ValidateConfiguration(cfg *integration.Configuration) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", integration.ErrConfiguration)
	}
	missing := make([]string, 0, 2)
	if cfg.Key("secretKey") == "" {
		missing = append(missing, "secretKey")
	}
	if cfg.Key("publishableKey") == "" {
		missing = append(missing, "publishableKey")
	}
	if len(missing) > 0 {
		return integration.NewFieldsError(integration.ErrConfiguration, "stripe configuration incomplete", missing)
	}
	return nil
}

// InitTransaction 初始化交易，不发起远端调用
func (m *Module) InitTransaction(ctx context.Context, cfg *integration.Configuration, req payment.Request) (*payment.Result, error) {
	if err := m.ValidateConfiguration(cfg); err != nil {
		return nil, err
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}
	return &payment.Result{
		TransactionType: constants.TransactionTypeInit,
		ProviderRef:     uuid.NewString(),
		Amount:          req.Amount,
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
	}, nil
}

// Authorize 创建 manual capture 的 PaymentIntent 并确认
func (m *Module) Authorize(ctx context.Context, cfg *integration.Configuration, req payment.Request) (*payment.Result, error) {
	return m.createIntent(ctx, cfg, req, "manual", constants.TransactionTypeAuthorize)
}

// AuthorizeAndCapture 创建 automatic capture 的 PaymentIntent 并确认
func (m *Module) AuthorizeAndCapture(ctx context.Context, cfg *integration.Configuration, req payment.Request) (*payment.Result, error) {
	return m.createIntent(ctx, cfg, req, "automatic", constants.TransactionTypeAuthorizeCapture)
}

// Capture 捕获先前授权的 PaymentIntent
func (m *Module) Capture(ctx context.Context, cfg *integration.Configuration, prior payment.Prior, req payment.Request) (*payment.Result, error) {
	if err := m.ValidateConfiguration(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prior.ProviderRef) == "" {
		return nil, fmt.Errorf("%w: provider ref is required", integration.ErrValidation)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	form := url.Values{}
	if req.Amount.GreaterThan(decimal.Zero) {
		minor, err := toMinorAmount(req.Amount, currency)
		if err != nil {
			return nil, err
		}
		form.Set("amount_to_capture", strconv.FormatInt(minor, 10))
	}

	path := "/v1/payment_intents/" + url.PathEscape(strings.TrimSpace(prior.ProviderRef)) + "/capture"
	raw, err := m.doFormRequest(ctx, cfg, path, form)
	if err != nil {
		return nil, err
	}
	return m.resultFromIntent(raw, constants.TransactionTypeCapture, req.Amount, currency)
}

// Refund 按 PaymentIntent 创建退款
func (m *Module) Refund(ctx context.Context, cfg *integration.Configuration, prior payment.Prior, req payment.RefundRequest) (*payment.Result, error) {
	if err := m.ValidateConfiguration(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prior.ProviderRef) == "" {
		return nil, fmt.Errorf("%w: provider ref is required", integration.ErrValidation)
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	minor, err := toMinorAmount(req.Amount, currency)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("payment_intent", strings.TrimSpace(prior.ProviderRef))
	form.Set("amount", strconv.FormatInt(minor, 10))
	form.Set("metadata[order_no]", req.OrderNo)

	raw, err := m.doFormRequest(ctx, cfg, "/v1/refunds", form)
	if err != nil {
		return nil, err
	}
	refundID := strings.TrimSpace(readString(raw, "id"))
	if refundID == "" {
		return nil, fmt.Errorf("%w: missing refund id", integration.ErrProtocol)
	}
	return &payment.Result{
		TransactionType: constants.TransactionTypeRefund,
		ProviderRef:     refundID,
		Amount:          req.Amount,
		Currency:        currency,
		Details: map[string]string{
			"status":         strings.TrimSpace(readString(raw, "status")),
			"payment_intent": strings.TrimSpace(prior.ProviderRef),
		},
	}, nil
}

func (m *Module) createIntent(ctx context.Context, cfg *integration.Configuration, req payment.Request, captureMethod string, txnType string) (*payment.Result, error) {
	if err := m.ValidateConfiguration(cfg); err != nil {
		return nil, err
	}
	if req.Card == nil {
		return nil, fmt.Errorf("%w: card is required", integration.ErrValidation)
	}
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", integration.ErrValidation)
	}
	minor, err := toMinorAmount(req.Amount, currency)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(minor, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("capture_method", captureMethod)
	form.Set("confirm", "true")
	form.Set("description", req.OrderNo)
	form.Set("metadata[order_no]", req.OrderNo)
	form.Set("payment_method_data[type]", "card")
	form.Set("payment_method_data[card][number]", req.Card.Number)
	form.Set("payment_method_data[card][exp_month]", req.Card.ExpiryMonth)
	form.Set("payment_method_data[card][exp_year]", req.Card.ExpiryYear)
	form.Set("payment_method_data[card][cvc]", req.Card.CVV)

	raw, err := m.doFormRequest(ctx, cfg, "/v1/payment_intents", form)
	if err != nil {
		return nil, err
	}
	return m.resultFromIntent(raw, txnType, req.Amount, currency)
}

func (m *Module) resultFromIntent(raw map[string]interface{}, txnType string, amount decimal.Decimal, currency string) (*payment.Result, error) {
	intentID := strings.TrimSpace(readString(raw, "id"))
	if intentID == "" {
		return nil, fmt.Errorf("%w: missing payment intent id", integration.ErrProtocol)
	}
	return &payment.Result{
		TransactionType: txnType,
		ProviderRef:     intentID,
		Amount:          amount,
		Currency:        currency,
		Details: map[string]string{
			"status": strings.TrimSpace(readString(raw, "status")),
		},
	}, nil
}

func (m *Module) doFormRequest(ctx context.Context, cfg *integration.Configuration, path string, form url.Values) (map[string]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	baseURL := strings.TrimSpace(m.APIBaseURL)
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	endpoint := strings.TrimRight(baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", integration.ErrCommunication)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.Key("secretKey"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrCommunication, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", integration.ErrCommunication)
	}
	raw := make(map[string]interface{})
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", integration.ErrProtocol)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", integration.ErrProtocol, readErrorMessage(raw, resp.StatusCode))
	}
	return raw, nil
}

func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be greater than zero", integration.ErrValidation)
	}
	return nil
}

func toMinorAmount(amount decimal.Decimal, currency string) (int64, error) {
	scale := currencyScale(currency)
	minor := amount.Shift(int32(scale)).Round(0)
	if !minor.Equal(amount.Shift(int32(scale))) {
		return 0, fmt.Errorf("%w: amount precision is invalid", integration.ErrValidation)
	}
	return minor.IntPart(), nil
}

func currencyScale(currency string) int {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	value, ok := raw[key].(string)
	if !ok {
		return ""
	}
	return value
}

func readErrorMessage(raw map[string]interface{}, statusCode int) string {
	if errRaw, ok := raw["error"].(map[string]interface{}); ok {
		if msg := strings.TrimSpace(readString(errRaw, "message")); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("unexpected status %d", statusCode)
}
