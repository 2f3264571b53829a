package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/commerce-next/internal/cache"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/models"
	"github.com/commerce-next/internal/repository"
	"github.com/commerce-next/internal/shipping"
)

// ShippingService 运费报价服务
type ShippingService struct {
	merchantRepo    repository.MerchantRepository
	moduleRepo      repository.IntegrationModuleRepository
	moduleConfigSvc *ModuleConfigurationService
	registry        *shipping.Registry
	environment     string
	quoteCacheTTL   time.Duration
}

// NewShippingService 创建运费报价服务
func NewShippingService(merchantRepo repository.MerchantRepository, moduleRepo repository.IntegrationModuleRepository, moduleConfigSvc *ModuleConfigurationService, registry *shipping.Registry, environment string, quoteCacheTTL time.Duration) *ShippingService {
	return &ShippingService{
		merchantRepo:    merchantRepo,
		moduleRepo:      moduleRepo,
		moduleConfigSvc: moduleConfigSvc,
		registry:        registry,
		environment:     environment,
		quoteCacheTTL:   quoteCacheTTL,
	}
}

// QuoteInput 报价输入
type QuoteInput struct {
	StoreID  uint
	Delivery shipping.Address
	Packages []shipping.PackageDetails
	Locale   string
	Context  context.Context
}

// GetShippingQuotes 为订单包裹询价。选用商户默认（或唯一激活）的
// 运费模块，命中缓存时不再外呼。
func (s *ShippingService) GetShippingQuotes(input QuoteInput) ([]shipping.ShippingOption, error) {
	log := paymentLogger("store_id", input.StoreID, "country", input.Delivery.CountryCode)

	store, err := s.merchantRepo.GetByID(input.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}

	cfg, err := s.selectConfiguration(input.StoreID)
	if err != nil {
		log.Warnw("shipping_module_resolve_failed", "error", err)
		return nil, err
	}
	module, ok := s.registry.Get(cfg.ModuleCode)
	if !ok {
		return nil, ErrModuleNotSupported
	}
	catalog, err := s.moduleRepo.GetByCode(cfg.ModuleCode)
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, ErrModuleNotSupported
	}

	req := shipping.QuoteRequest{
		StoreCode: store.Code,
		Origin: shipping.Address{
			Address:       store.Address,
			City:          store.City,
			StateProvince: store.StateProvince,
			PostalCode:    store.PostalCode,
			CountryCode:   store.CountryCode,
		},
		Delivery:       input.Delivery,
		Packages:       input.Packages,
		WeightUnit:     store.WeightUnit,
		MeasureUnit:    store.MeasureUnit,
		Currency:       store.Currency,
		Locale:         input.Locale,
		ServiceNames:   serviceNames(catalog),
		Environment:    s.environment,
		EndpointConfig: endpointConfig(catalog),
	}

	ctx := input.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cacheKey := quoteCacheKey(input.StoreID, cfg.ModuleCode, req)
	var cached []shipping.ShippingOption
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		log.Debugw("shipping_quote_cache_hit", "module_code", cfg.ModuleCode)
		return cached, nil
	}

	options, err := module.GetShippingQuotes(ctx, cfg, req)
	if err != nil {
		log.Warnw("shipping_quote_failed", "module_code", cfg.ModuleCode, "error", err)
		return nil, err
	}
	if len(options) > 0 && s.quoteCacheTTL > 0 {
		if err := cache.SetJSON(ctx, cacheKey, options, s.quoteCacheTTL); err != nil {
			log.Warnw("shipping_quote_cache_write_failed", "error", err)
		}
	}
	log.Infow("shipping_quote_success",
		"module_code", cfg.ModuleCode,
		"option_count", len(options),
	)
	return options, nil
}

// ValidateModuleConfiguration 校验一份运费模块配置
func (s *ShippingService) ValidateModuleConfiguration(moduleCode string, cfg *integration.Configuration) error {
	module, ok := s.registry.Get(moduleCode)
	if !ok {
		return ErrModuleNotSupported
	}
	return module.ValidateModuleConfiguration(cfg)
}

// selectConfiguration 选择默认或唯一激活的运费模块配置
func (s *ShippingService) selectConfiguration(storeID uint) (*integration.Configuration, error) {
	configured, err := s.moduleConfigSvc.GetShippingModulesConfigured(storeID)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(configured))
	for code := range configured {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	var fallback *integration.Configuration
	for _, code := range codes {
		cfg := configured[code]
		if !cfg.Active {
			continue
		}
		if cfg.DefaultSelected {
			return cfg, nil
		}
		if fallback == nil {
			fallback = cfg
		}
	}
	if fallback == nil {
		return nil, ErrModuleNotConfigured
	}
	return fallback, nil
}

// endpointConfig 取出目录行里按环境分组的接入点配置。
// 目录把接入点收在 env 键下，给其它目录配置留出空间。
func endpointConfig(catalog *models.IntegrationModule) map[string]interface{} {
	if wrapped, ok := catalog.ConfigJSON["env"].(map[string]interface{}); ok {
		return wrapped
	}
	return catalog.ConfigJSON
}

func serviceNames(catalog *models.IntegrationModule) map[string]string {
	names := make(map[string]string, len(catalog.DetailsJSON))
	for code, value := range catalog.DetailsJSON {
		if name, ok := value.(string); ok {
			names[code] = name
		}
	}
	return names
}

func quoteCacheKey(storeID uint, moduleCode string, req shipping.QuoteRequest) string {
	payload, err := json.Marshal(struct {
		Delivery shipping.Address          `json:"delivery"`
		Packages []shipping.PackageDetails `json:"packages"`
	}{req.Delivery, req.Packages})
	if err != nil {
		return fmt.Sprintf("shipping:quote:%d:%s", storeID, moduleCode)
	}
	digest := sha256.Sum256(payload)
	return fmt.Sprintf("shipping:quote:%d:%s:%s", storeID, moduleCode, hex.EncodeToString(digest[:8]))
}
