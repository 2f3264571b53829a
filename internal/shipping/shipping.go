// Package shipping 定义运费报价模块策略接口与注册表。
package shipping

import (
	"context"
	"sort"
	"sync"

	"github.com/commerce-next/internal/integration"

	"github.com/shopspring/decimal"
)

// Address 报价用地址
type Address struct {
	Address       string
	City          string
	StateProvince string
	PostalCode    string
	CountryCode   string
}

// PackageDetails 单个包裹的物理属性
type PackageDetails struct {
	PackagingType string
	Weight        decimal.Decimal
	Length        decimal.Decimal
	Width         decimal.Decimal
	Height        decimal.Decimal
}

// QuoteRequest 运费报价请求
type QuoteRequest struct {
	StoreCode    string
	Origin       Address
	Delivery     Address
	Packages     []PackageDetails
	WeightUnit   string
	MeasureUnit  string
	Currency     string
	Locale       string
	// ServiceNames 来自模块目录的服务代码 → 名称表
	ServiceNames map[string]string
	// Environment 部署环境，决定端点选择
	Environment string
	// EndpointConfig 模块目录的按环境端点配置
	EndpointConfig map[string]interface{}
}

// ShippingOption 一个报价结果，按请求临时产生，不落库
type ShippingOption struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	DeliveryDays int             `json:"deliveryDays,omitempty"`
}

// QuoteModule 运费报价模块接口
type QuoteModule interface {
	Code() string
	ValidateModuleConfiguration(cfg *integration.Configuration) error
	GetShippingQuotes(ctx context.Context, cfg *integration.Configuration, req QuoteRequest) ([]ShippingOption, error)
}

// Registry 模块注册表
type Registry struct {
	mu      sync.RWMutex
	modules map[string]QuoteModule
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]QuoteModule)}
}

// Register 注册模块
func (r *Registry) Register(module QuoteModule) {
	if module == nil || module.Code() == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[module.Code()] = module
}

// Get 按模块代码查找
func (r *Registry) Get(code string) (QuoteModule, bool) {
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
