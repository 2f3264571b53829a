// Package moneyorder 线下汇款支付模块。
// 所有操作都在本地完成，订单收款依赖商家人工确认。
package moneyorder

import (
	"context"
	"fmt"
	"strings"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Module 线下汇款模块
type Module struct{}

// New 创建模块
func New() *Module {
	return &Module{}
}

// Code 模块代码
func (m *Module) Code() string {
	return constants.ModuleCodeMoneyOrder
}

// ValidateConfiguration 校验收款地址配置
func (m *Module) ValidateConfiguration(cfg *integration.Configuration) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", integration.ErrConfiguration)
	}
	if cfg.Key("address") == "" {
		return integration.NewFieldsError(integration.ErrConfiguration, "money order configuration incomplete", []string{"address"})
	}
	return nil
}

// InitTransaction 初始化交易
func (m *Module) InitTransaction(ctx context.Context, cfg *integration.Configuration, req payment.Request) (*payment.Result, error) {
	return m.localResult(cfg, constants.TransactionTypeInit, req.Amount, req.Currency)
}

// Authorize 线下支付无远端授权，记录本地引用
func (m *Module) Authorize(ctx context.Context, cfg *integration.Configuration, req payment.Request) (*payment.Result, error) {
	return m.localResult(cfg, constants.TransactionTypeAuthorize, req.Amount, req.Currency)
}

// AuthorizeAndCapture 记录待收款交易，订单保持待处理
func (m *Module) AuthorizeAndCapture(ctx context.Context, cfg *integration.Configuration, req payment.Request) (*payment.Result, error) {
	return m.localResult(cfg, constants.TransactionTypeAuthorizeCapture, req.Amount, req.Currency)
}

// Capture 收到汇款后由商家触发
func (m *Module) Capture(ctx context.Context, cfg *integration.Configuration, prior payment.Prior, req payment.Request) (*payment.Result, error) {
	if strings.TrimSpace(prior.ProviderRef) == "" {
		return nil, fmt.Errorf("%w: provider ref is required", integration.ErrValidation)
	}
	return m.localResult(cfg, constants.TransactionTypeCapture, req.Amount, req.Currency)
}

// Refund 线下退款，仅记录
func (m *Module) Refund(ctx context.Context, cfg *integration.Configuration, prior payment.Prior, req payment.RefundRequest) (*payment.Result, error) {
	if strings.TrimSpace(prior.ProviderRef) == "" {
		return nil, fmt.Errorf("%w: provider ref is required", integration.ErrValidation)
	}
	return m.localResult(cfg, constants.TransactionTypeRefund, req.Amount, req.Currency)
}

func (m *Module) localResult(cfg *integration.Configuration, txnType string, amount decimal.Decimal, currency string) (*payment.Result, error) {
	if err := m.ValidateConfiguration(cfg); err != nil {
		return nil, err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be greater than zero", integration.ErrValidation)
	}
	return &payment.Result{
		TransactionType: txnType,
		ProviderRef:     uuid.NewString(),
		Amount:          amount,
		Currency:        strings.ToUpper(strings.TrimSpace(currency)),
		Details: map[string]string{
			"payTo": cfg.Key("address"),
		},
	}, nil
}
