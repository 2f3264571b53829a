package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/models"
	"github.com/commerce-next/internal/repository"
	"github.com/commerce-next/internal/secret"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupModuleConfigurationTest(t *testing.T) (*ModuleConfigurationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:module_configuration_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.MerchantConfiguration{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cipher, err := secret.NewCipher("test-passphrase", "test-salt")
	if err != nil {
		t.Fatalf("create cipher failed: %v", err)
	}
	svc := NewModuleConfigurationService(repository.NewMerchantConfigurationRepository(db), cipher)
	return svc, db
}

func stripeConfiguration() *integration.Configuration {
	return &integration.Configuration{
		ModuleCode: constants.ModuleCodeStripeCard,
		Active:     true,
		Keys: map[string]string{
			"secretKey":      "sk_test_123",
			"publishableKey": "pk_test_123",
		},
	}
}

func TestSaveThenGetPaymentModuleConfiguration(t *testing.T) {
	svc, _ := setupModuleConfigurationTest(t)

	if err := svc.SavePaymentModuleConfiguration(1, stripeConfiguration()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	configured, err := svc.GetPaymentModulesConfigured(1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	cfg, ok := configured[constants.ModuleCodeStripeCard]
	if !ok {
		t.Fatal("expected stripecard configuration")
	}
	if cfg.Key("secretKey") != "sk_test_123" {
		t.Fatalf("unexpected key material: %s", cfg.Key("secretKey"))
	}
}

func TestSaveThenRemoveRoundTrip(t *testing.T) {
	svc, _ := setupModuleConfigurationTest(t)

	if err := svc.SavePaymentModuleConfiguration(1, stripeConfiguration()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	moneyOrder := &integration.Configuration{
		ModuleCode: constants.ModuleCodeMoneyOrder,
		Active:     true,
		Keys:       map[string]string{"address": "100 Main St"},
	}
	if err := svc.SavePaymentModuleConfiguration(1, moneyOrder); err != nil {
		t.Fatalf("save second module failed: %v", err)
	}
	if err := svc.RemovePaymentModuleConfiguration(1, constants.ModuleCodeStripeCard); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	configured, err := svc.GetPaymentModulesConfigured(1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, ok := configured[constants.ModuleCodeStripeCard]; ok {
		t.Fatal("removed module still present")
	}
	if _, ok := configured[constants.ModuleCodeMoneyOrder]; !ok {
		t.Fatal("unrelated module lost on remove")
	}
}

func TestGetConfiguredEmptyWithoutRecord(t *testing.T) {
	svc, _ := setupModuleConfigurationTest(t)
	configured, err := svc.GetPaymentModulesConfigured(42)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(configured) != 0 {
		t.Fatalf("expected empty map, got %v", configured)
	}
}

func TestConfigurationStoredEncrypted(t *testing.T) {
	svc, db := setupModuleConfigurationTest(t)
	if err := svc.SavePaymentModuleConfiguration(1, stripeConfiguration()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	var record models.MerchantConfiguration
	if err := db.Where("store_id = ? AND config_group = ?", 1, constants.ConfigGroupPaymentModules).First(&record).Error; err != nil {
		t.Fatalf("read record failed: %v", err)
	}
	if record.Ciphertext == "" {
		t.Fatal("expected ciphertext")
	}
	for _, secretText := range []string{"sk_test_123", "stripecard"} {
		if strings.Contains(record.Ciphertext, secretText) {
			t.Fatalf("plaintext %q leaked into stored value", secretText)
		}
	}
}

func TestCorruptedCiphertextSurfacesConfigurationError(t *testing.T) {
	svc, db := setupModuleConfigurationTest(t)
	record := models.MerchantConfiguration{
		StoreID:     1,
		ConfigGroup: constants.ConfigGroupPaymentModules,
		Ciphertext:  "not-a-ciphertext",
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed record failed: %v", err)
	}
	_, err := svc.GetPaymentModulesConfigured(1)
	if !errors.Is(err, integration.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestShippingGroupIsolatedFromPaymentGroup(t *testing.T) {
	svc, _ := setupModuleConfigurationTest(t)
	upsCfg := &integration.Configuration{
		ModuleCode: constants.ModuleCodeUPS,
		Active:     true,
		Keys:       map[string]string{"accessKey": "license-1", "userId": "u", "password": "p"},
		Options:    map[string][]string{"packages": {"02"}},
	}
	if err := svc.SaveShippingModuleConfiguration(1, upsCfg); err != nil {
		t.Fatalf("save shipping failed: %v", err)
	}
	paymentConfigured, err := svc.GetPaymentModulesConfigured(1)
	if err != nil {
		t.Fatalf("get payment failed: %v", err)
	}
	if len(paymentConfigured) != 0 {
		t.Fatalf("shipping config leaked into payment group: %v", paymentConfigured)
	}
	shippingConfigured, err := svc.GetShippingModulesConfigured(1)
	if err != nil {
		t.Fatalf("get shipping failed: %v", err)
	}
	if _, ok := shippingConfigured[constants.ModuleCodeUPS]; !ok {
		t.Fatal("expected ups configuration")
	}
}
