package service

import (
	"encoding/json"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/logger"
	"github.com/commerce-next/internal/models"
	"github.com/commerce-next/internal/repository"
	"github.com/commerce-next/internal/secret"

	"gorm.io/gorm"
)

// ModuleConfigurationService 商户模块配置服务。
// 每商户每配置组一行密文，明文为模块代码 → 配置的 JSON 对象；
// 读改写在事务内带行锁进行。
type ModuleConfigurationService struct {
	configRepo repository.MerchantConfigurationRepository
	cipher     *secret.Cipher
}

// NewModuleConfigurationService 创建模块配置服务
func NewModuleConfigurationService(configRepo repository.MerchantConfigurationRepository, cipher *secret.Cipher) *ModuleConfigurationService {
	return &ModuleConfigurationService{
		configRepo: configRepo,
		cipher:     cipher,
	}
}

// GetPaymentModulesConfigured 获取商户已配置的支付模块
func (s *ModuleConfigurationService) GetPaymentModulesConfigured(storeID uint) (map[string]*integration.Configuration, error) {
	return s.getConfigured(storeID, constants.ConfigGroupPaymentModules)
}

// GetShippingModulesConfigured 获取商户已配置的运费模块
func (s *ModuleConfigurationService) GetShippingModulesConfigured(storeID uint) (map[string]*integration.Configuration, error) {
	return s.getConfigured(storeID, constants.ConfigGroupShippingModules)
}

// GetConfiguration 获取单个模块配置，未配置时返回 nil
func (s *ModuleConfigurationService) GetConfiguration(storeID uint, configGroup, moduleCode string) (*integration.Configuration, error) {
	configured, err := s.getConfigured(storeID, configGroup)
	if err != nil {
		return nil, err
	}
	return configured[moduleCode], nil
}

// SavePaymentModuleConfiguration 保存支付模块配置
func (s *ModuleConfigurationService) SavePaymentModuleConfiguration(storeID uint, cfg *integration.Configuration) error {
	return s.save(storeID, constants.ConfigGroupPaymentModules, cfg)
}

// SaveShippingModuleConfiguration 保存运费模块配置
func (s *ModuleConfigurationService) SaveShippingModuleConfiguration(storeID uint, cfg *integration.Configuration) error {
	return s.save(storeID, constants.ConfigGroupShippingModules, cfg)
}

// RemovePaymentModuleConfiguration 移除支付模块配置
func (s *ModuleConfigurationService) RemovePaymentModuleConfiguration(storeID uint, moduleCode string) error {
	return s.remove(storeID, constants.ConfigGroupPaymentModules, moduleCode)
}

// RemoveShippingModuleConfiguration 移除运费模块配置
func (s *ModuleConfigurationService) RemoveShippingModuleConfiguration(storeID uint, moduleCode string) error {
	return s.remove(storeID, constants.ConfigGroupShippingModules, moduleCode)
}

func (s *ModuleConfigurationService) getConfigured(storeID uint, configGroup string) (map[string]*integration.Configuration, error) {
	record, err := s.configRepo.Get(storeID, configGroup)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return map[string]*integration.Configuration{}, nil
	}
	return s.decode(record.Ciphertext)
}

func (s *ModuleConfigurationService) save(storeID uint, configGroup string, cfg *integration.Configuration) error {
	if cfg == nil || cfg.ModuleCode == "" {
		return ErrModuleNotConfigured
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		configRepo := s.configRepo.WithTx(tx)
		record, err := configRepo.GetForUpdate(storeID, configGroup)
		if err != nil {
			return err
		}
		configured := map[string]*integration.Configuration{}
		if record != nil {
			configured, err = s.decode(record.Ciphertext)
			if err != nil {
				return err
			}
		} else {
			record = &models.MerchantConfiguration{
				StoreID:     storeID,
				ConfigGroup: configGroup,
			}
		}
		configured[cfg.ModuleCode] = cfg
		ciphertext, err := s.encode(configured)
		if err != nil {
			return err
		}
		record.Ciphertext = ciphertext
		return configRepo.Upsert(record)
	})
	if err != nil {
		logger.SW("store_id", storeID, "config_group", configGroup, "module_code", cfg.ModuleCode).
			Errorw("module_configuration_save_failed", "error", err)
		return err
	}
	logger.SW("store_id", storeID, "config_group", configGroup, "module_code", cfg.ModuleCode).
		Infow("module_configuration_saved")
	return nil
}

func (s *ModuleConfigurationService) remove(storeID uint, configGroup, moduleCode string) error {
	if moduleCode == "" {
		return ErrModuleNotConfigured
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		configRepo := s.configRepo.WithTx(tx)
		record, err := configRepo.GetForUpdate(storeID, configGroup)
		if err != nil {
			return err
		}
		if record == nil {
			return nil
		}
		configured, err := s.decode(record.Ciphertext)
		if err != nil {
			return err
		}
		if _, ok := configured[moduleCode]; !ok {
			return nil
		}
		delete(configured, moduleCode)
		ciphertext, err := s.encode(configured)
		if err != nil {
			return err
		}
		record.Ciphertext = ciphertext
		return configRepo.Upsert(record)
	})
	if err != nil {
		logger.SW("store_id", storeID, "config_group", configGroup, "module_code", moduleCode).
			Errorw("module_configuration_remove_failed", "error", err)
		return err
	}
	logger.SW("store_id", storeID, "config_group", configGroup, "module_code", moduleCode).
		Infow("module_configuration_removed")
	return nil
}

func (s *ModuleConfigurationService) decode(ciphertext string) (map[string]*integration.Configuration, error) {
	plaintext, err := s.cipher.DecryptString(ciphertext)
	if err != nil {
		return nil, ErrConfigurationCorrupted
	}
	configured := map[string]*integration.Configuration{}
	if err := json.Unmarshal([]byte(plaintext), &configured); err != nil {
		return nil, ErrConfigurationCorrupted
	}
	return configured, nil
}

func (s *ModuleConfigurationService) encode(configured map[string]*integration.Configuration) (string, error) {
	plaintext, err := json.Marshal(configured)
	if err != nil {
		return "", ErrConfigurationCorrupted
	}
	return s.cipher.EncryptString(string(plaintext))
}
