package repository

import (
	"errors"

	"github.com/commerce-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MerchantConfigurationRepository 商户加密配置数据访问接口
type MerchantConfigurationRepository interface {
	Get(storeID uint, configGroup string) (*models.MerchantConfiguration, error)
	GetForUpdate(storeID uint, configGroup string) (*models.MerchantConfiguration, error)
	Upsert(config *models.MerchantConfiguration) error
	Delete(storeID uint, configGroup string) error
	WithTx(tx *gorm.DB) *GormMerchantConfigurationRepository
}

// GormMerchantConfigurationRepository GORM 实现
type GormMerchantConfigurationRepository struct {
	db *gorm.DB
}

// NewMerchantConfigurationRepository 创建商户配置仓库
func NewMerchantConfigurationRepository(db *gorm.DB) *GormMerchantConfigurationRepository {
	return &GormMerchantConfigurationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMerchantConfigurationRepository) WithTx(tx *gorm.DB) *GormMerchantConfigurationRepository {
	if tx == nil {
		return r
	}
	return &GormMerchantConfigurationRepository{db: tx}
}

// Get 获取配置行
func (r *GormMerchantConfigurationRepository) Get(storeID uint, configGroup string) (*models.MerchantConfiguration, error) {
	var config models.MerchantConfiguration
	err := r.db.Where("store_id = ? AND config_group = ?", storeID, configGroup).First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// GetForUpdate 带行锁获取配置行，供事务内读改写使用
func (r *GormMerchantConfigurationRepository) GetForUpdate(storeID uint, configGroup string) (*models.MerchantConfiguration, error) {
	var config models.MerchantConfiguration
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND config_group = ?", storeID, configGroup).
		First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// Upsert 更新或创建配置行
func (r *GormMerchantConfigurationRepository) Upsert(config *models.MerchantConfiguration) error {
	if config.ID != 0 {
		return r.db.Save(config).Error
	}
	existing, err := r.Get(config.StoreID, config.ConfigGroup)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Ciphertext = config.Ciphertext
		return r.db.Save(existing).Error
	}
	return r.db.Create(config).Error
}

// Delete 删除配置行
func (r *GormMerchantConfigurationRepository) Delete(storeID uint, configGroup string) error {
	return r.db.Where("store_id = ? AND config_group = ?", storeID, configGroup).
		Delete(&models.MerchantConfiguration{}).Error
}
