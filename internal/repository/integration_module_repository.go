package repository

import (
	"strings"

	"github.com/commerce-next/internal/models"

	"gorm.io/gorm"
)

// IntegrationModuleRepository 模块目录数据访问接口
type IntegrationModuleRepository interface {
	GetByCode(code string) (*models.IntegrationModule, error)
	ListByType(moduleType string) ([]models.IntegrationModule, error)
}

// GormIntegrationModuleRepository GORM 实现
type GormIntegrationModuleRepository struct {
	db *gorm.DB
}

// NewIntegrationModuleRepository 创建模块目录仓库
func NewIntegrationModuleRepository(db *gorm.DB) *GormIntegrationModuleRepository {
	return &GormIntegrationModuleRepository{db: db}
}

// GetByCode 根据模块代码获取目录项
func (r *GormIntegrationModuleRepository) GetByCode(code string) (*models.IntegrationModule, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var module models.IntegrationModule
	result := r.db.Where("code = ?", code).Limit(1).Find(&module)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &module, nil
}

// ListByType 按类型列出目录项
func (r *GormIntegrationModuleRepository) ListByType(moduleType string) ([]models.IntegrationModule, error) {
	var modules []models.IntegrationModule
	err := r.db.Where("module_type = ?", strings.ToLower(strings.TrimSpace(moduleType))).
		Order("code asc").Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}
