package models

import "time"

// IntegrationModule 集成模块目录（只读参考数据，非商户配置）
type IntegrationModule struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"`  // 模块代码
	ModuleType  string    `gorm:"index;not null" json:"module_type"` // payment / shipping
	Regions     string    `gorm:"type:varchar(200)" json:"regions"`  // 支持地区（逗号分隔，* 为不限）
	ConfigJSON  JSON      `gorm:"type:json" json:"config"`           // 每环境接入点等静态配置
	DetailsJSON JSON      `gorm:"type:json" json:"details"`          // 子项代码 → 可读名称
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (IntegrationModule) TableName() string {
	return "integration_modules"
}

// MerchantConfiguration 商户加密配置行。
// 每个店铺每个配置分组一行，Ciphertext 解密后是
// moduleCode → 模块配置 的 JSON 映射。
type MerchantConfiguration struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	StoreID     uint      `gorm:"uniqueIndex:idx_store_config_group;not null" json:"store_id"`
	ConfigGroup string    `gorm:"uniqueIndex:idx_store_config_group;not null" json:"config_group"`
	Ciphertext  string    `gorm:"type:text;not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (MerchantConfiguration) TableName() string {
	return "merchant_configurations"
}
