// Package payment 定义支付模块策略接口与注册表。
// 各支付提供方在子包中实现 Module，服务层按模块代码路由。
package payment

import (
	"context"
	"sort"
	"sync"

	"github.com/commerce-next/internal/integration"

	"github.com/shopspring/decimal"
)

// Card 卡支付明细
type Card struct {
	Number      string
	Holder      string
	ExpiryMonth string
	ExpiryYear  string
	CVV         string
	Brand       string
}

// Request 支付请求（授权/授权并捕获/初始化共用）
type Request struct {
	OrderNo  string
	Amount   decimal.Decimal
	Currency string
	Card     *Card
	Customer string
}

// Prior 先前交易的引用，用于捕获与退款
type Prior struct {
	ProviderRef     string
	Amount          decimal.Decimal
	TransactionType string
}

// RefundRequest 退款请求
type RefundRequest struct {
	OrderNo  string
	Amount   decimal.Decimal
	Currency string
	Partial  bool
}

// Result 模块调用结果，由服务层落为 Transaction
type Result struct {
	TransactionType string
	ProviderRef     string
	Amount          decimal.Decimal
	Currency        string
	Details         map[string]string
}

// Module 支付模块接口
type Module interface {
	Code() string
	ValidateConfiguration(cfg *integration.Configuration) error
	InitTransaction(ctx context.Context, cfg *integration.Configuration, req Request) (*Result, error)
	Authorize(ctx context.Context, cfg *integration.Configuration, req Request) (*Result, error)
	AuthorizeAndCapture(ctx context.Context, cfg *integration.Configuration, req Request) (*Result, error)
	Capture(ctx context.Context, cfg *integration.Configuration, prior Prior, req Request) (*Result, error)
	Refund(ctx context.Context, cfg *integration.Configuration, prior Prior, req RefundRequest) (*Result, error)
}

// Registry 模块注册表（模块代码 → 实现）
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register 注册模块，同代码后注册者覆盖先注册者
func (r *Registry) Register(module Module) {
	if module == nil || module.Code() == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[module.Code()] = module
}

// Get 按模块代码查找
func (r *Registry) Get(code string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, ok := r.modules[code]
	return module, ok
}

// Codes 返回已注册的模块代码（有序）
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.modules))
	for code := range r.modules {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
