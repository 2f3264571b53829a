package repository

import (
	"errors"
	"strings"

	"github.com/commerce-next/internal/models"

	"gorm.io/gorm"
)

// MerchantRepository 店铺数据访问接口
type MerchantRepository interface {
	GetByID(id uint) (*models.MerchantStore, error)
	GetByCode(code string) (*models.MerchantStore, error)
	Create(store *models.MerchantStore) error
	Update(store *models.MerchantStore) error
}

// GormMerchantRepository GORM 实现
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository 创建店铺仓库
func NewMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// GetByID 根据 ID 获取店铺
func (r *GormMerchantRepository) GetByID(id uint) (*models.MerchantStore, error) {
	var store models.MerchantStore
	if err := r.db.First(&store, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

// GetByCode 根据代码获取店铺
func (r *GormMerchantRepository) GetByCode(code string) (*models.MerchantStore, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var store models.MerchantStore
	result := r.db.Where("code = ?", code).Limit(1).Find(&store)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &store, nil
}

// Create 创建店铺
func (r *GormMerchantRepository) Create(store *models.MerchantStore) error {
	return r.db.Create(store).Error
}

// Update 更新店铺
func (r *GormMerchantRepository) Update(store *models.MerchantStore) error {
	return r.db.Save(store).Error
}
