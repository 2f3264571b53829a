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
	"github.com/commerce-next/internal/repository"
	"github.com/commerce-next/internal/secret"
	"github.com/commerce-next/internal/shipping"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// stubQuoteModule 记录请求的报价模块桩
type stubQuoteModule struct {
	code    string
	lastReq shipping.QuoteRequest
	calls   int
	options []shipping.ShippingOption
	err     error
}

func (m *stubQuoteModule) Code() string { return m.code }

func (m *stubQuoteModule) ValidateModuleConfiguration(cfg *integration.Configuration) error {
	return nil
}

func (m *stubQuoteModule) GetShippingQuotes(ctx context.Context, cfg *integration.Configuration, req shipping.QuoteRequest) ([]shipping.ShippingOption, error) {
	m.calls++
	m.lastReq = req
	return m.options, m.err
}

func setupShippingServiceTest(t *testing.T) (*ShippingService, *stubQuoteModule, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:shipping_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.MerchantStore{},
		&models.IntegrationModule{},
		&models.MerchantConfiguration{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	store := models.MerchantStore{
		ID:          1,
		Code:        "default",
		Name:        "Default Store",
		Currency:    "USD",
		CountryCode: "US",
		City:        "Boston",
		PostalCode:  "02110",
		WeightUnit:  constants.WeightUnitLB,
		MeasureUnit: constants.MeasureUnitIN,
	}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store failed: %v", err)
	}
	catalog := models.IntegrationModule{
		Code:       constants.ModuleCodeUPS,
		ModuleType: constants.ModuleTypeShipping,
		Regions:    "US,CA",
		ConfigJSON: models.JSON{
			"env": map[string]interface{}{
				"test": map[string]interface{}{"scheme": "http", "host": "example.test", "path": "/rate"},
			},
		},
		DetailsJSON: models.JSON{"03": "UPS Ground"},
	}
	if err := db.Create(&catalog).Error; err != nil {
		t.Fatalf("create catalog failed: %v", err)
	}

	cipher, err := secret.NewCipher("test-passphrase", "test-salt")
	if err != nil {
		t.Fatalf("create cipher failed: %v", err)
	}
	moduleConfigSvc := NewModuleConfigurationService(repository.NewMerchantConfigurationRepository(db), cipher)

	stub := &stubQuoteModule{
		code: constants.ModuleCodeUPS,
		options: []shipping.ShippingOption{
			{Code: "03", Name: "UPS Ground", Price: decimal.RequireFromString("18.40"), Currency: "USD"},
		},
	}
	registry := shipping.NewRegistry()
	registry.Register(stub)

	svc := NewShippingService(
		repository.NewMerchantRepository(db),
		repository.NewIntegrationModuleRepository(db),
		moduleConfigSvc,
		registry,
		constants.EnvironmentTest,
		0,
	)
	if err := moduleConfigSvc.SaveShippingModuleConfiguration(1, &integration.Configuration{
		ModuleCode:      constants.ModuleCodeUPS,
		Active:          true,
		DefaultSelected: true,
		Keys:            map[string]string{"accessKey": "license-1", "userId": "u", "password": "p"},
		Options:         map[string][]string{"packages": {"02"}},
	}); err != nil {
		t.Fatalf("save shipping config failed: %v", err)
	}
	return svc, stub, db
}

func quoteInput() QuoteInput {
	return QuoteInput{
		StoreID: 1,
		Delivery: shipping.Address{
			City:        "Toronto",
			PostalCode:  "M5V 2T6",
			CountryCode: "CA",
		},
		Packages: []shipping.PackageDetails{
			{Weight: decimal.RequireFromString("2.5"), Length: decimal.RequireFromString("10"), Width: decimal.RequireFromString("8"), Height: decimal.RequireFromString("4")},
		},
	}
}

func TestGetShippingQuotesDispatchesToModule(t *testing.T) {
	svc, stub, _ := setupShippingServiceTest(t)

	options, err := svc.GetShippingQuotes(quoteInput())
	if err != nil {
		t.Fatalf("get quotes failed: %v", err)
	}
	if len(options) != 1 || options[0].Code != "03" {
		t.Fatalf("unexpected options: %v", options)
	}
	if stub.calls != 1 {
		t.Fatalf("expected one module call, got %d", stub.calls)
	}
	if stub.lastReq.WeightUnit != constants.WeightUnitLB {
		t.Fatalf("store weight unit not propagated: %s", stub.lastReq.WeightUnit)
	}
	if stub.lastReq.Origin.PostalCode != "02110" {
		t.Fatalf("store origin not propagated: %+v", stub.lastReq.Origin)
	}
	if stub.lastReq.ServiceNames["03"] != "UPS Ground" {
		t.Fatalf("service names not propagated: %v", stub.lastReq.ServiceNames)
	}
	if _, ok := stub.lastReq.EndpointConfig["test"]; !ok {
		t.Fatalf("endpoint config not propagated: %v", stub.lastReq.EndpointConfig)
	}
}

func TestGetShippingQuotesUsesSeededCatalogEndpoints(t *testing.T) {
	svc, stub, db := setupShippingServiceTest(t)
	if err := db.Where("code = ?", constants.ModuleCodeUPS).Delete(&models.IntegrationModule{}).Error; err != nil {
		t.Fatalf("clear catalog failed: %v", err)
	}
	if err := models.InitIntegrationModules(); err != nil {
		t.Fatalf("seed catalog failed: %v", err)
	}

	if _, err := svc.GetShippingQuotes(quoteInput()); err != nil {
		t.Fatalf("get quotes failed: %v", err)
	}
	endpoint, err := integration.ResolveEndpoint(stub.lastReq.EndpointConfig, constants.EnvironmentTest)
	if err != nil {
		t.Fatalf("resolve endpoint failed: %v", err)
	}
	if endpoint.Host != "wwwcie.ups.com" {
		t.Fatalf("unexpected endpoint host: %s", endpoint.Host)
	}
}

func TestSelectConfigurationFallbackIsDeterministic(t *testing.T) {
	svc, _, _ := setupShippingServiceTest(t)
	if err := svc.moduleConfigSvc.SaveShippingModuleConfiguration(1, &integration.Configuration{
		ModuleCode: constants.ModuleCodeUPS,
		Active:     true,
		Keys:       map[string]string{"accessKey": "license-1", "userId": "u", "password": "p"},
	}); err != nil {
		t.Fatalf("save ups config failed: %v", err)
	}
	if err := svc.moduleConfigSvc.SaveShippingModuleConfiguration(1, &integration.Configuration{
		ModuleCode: "canadapost",
		Active:     true,
		Keys:       map[string]string{"apiKey": "k"},
	}); err != nil {
		t.Fatalf("save canadapost config failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		cfg, err := svc.selectConfiguration(1)
		if err != nil {
			t.Fatalf("select configuration failed: %v", err)
		}
		if cfg.ModuleCode != "canadapost" {
			t.Fatalf("fallback must pick first code in order, got %s", cfg.ModuleCode)
		}
	}
}

func TestGetShippingQuotesWithoutConfiguration(t *testing.T) {
	svc, _, db := setupShippingServiceTest(t)
	if err := db.Where("store_id = ?", 1).Delete(&models.MerchantConfiguration{}).Error; err != nil {
		t.Fatalf("clear configuration failed: %v", err)
	}
	_, err := svc.GetShippingQuotes(quoteInput())
	if !errors.Is(err, ErrModuleNotConfigured) {
		t.Fatalf("expected module not configured, got %v", err)
	}
}

func TestGetShippingQuotesInactiveConfigurationSkipped(t *testing.T) {
	svc, _, _ := setupShippingServiceTest(t)
	if err := svc.moduleConfigSvc.SaveShippingModuleConfiguration(1, &integration.Configuration{
		ModuleCode:      constants.ModuleCodeUPS,
		Active:          false,
		DefaultSelected: true,
		Keys:            map[string]string{"accessKey": "license-1", "userId": "u", "password": "p"},
		Options:         map[string][]string{"packages": {"02"}},
	}); err != nil {
		t.Fatalf("save config failed: %v", err)
	}
	_, err := svc.GetShippingQuotes(quoteInput())
	if !errors.Is(err, ErrModuleNotConfigured) {
		t.Fatalf("expected module not configured, got %v", err)
	}
}

func TestGetShippingQuotesUnknownStore(t *testing.T) {
	svc, _, _ := setupShippingServiceTest(t)
	input := quoteInput()
	input.StoreID = 99
	_, err := svc.GetShippingQuotes(input)
	if !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("expected store not found, got %v", err)
	}
}

func TestGetShippingQuotesModuleFailureSurfaces(t *testing.T) {
	svc, stub, _ := setupShippingServiceTest(t)
	stub.options = nil
	stub.err = fmt.Errorf("%w: carrier unavailable", integration.ErrCommunication)
	_, err := svc.GetShippingQuotes(quoteInput())
	if !errors.Is(err, integration.ErrCommunication) {
		t.Fatalf("expected communication error, got %v", err)
	}
}
