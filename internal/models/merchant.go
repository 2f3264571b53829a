package models

import "time"

// MerchantStore 商户店铺
type MerchantStore struct {
	ID            uint      `gorm:"primarykey" json:"id"`                   // 主键
	Code          string    `gorm:"uniqueIndex;not null" json:"code"`       // 店铺代码
	Name          string    `gorm:"not null" json:"name"`                   // 店铺名称
	Currency      string    `gorm:"not null" json:"currency"`               // 结算币种
	CountryCode   string    `gorm:"type:varchar(2);not null" json:"country_code"` // 所在国家
	Address       string    `gorm:"type:varchar(200)" json:"address"` // 发货地址
	StateProvince string    `gorm:"type:varchar(100)" json:"state_province"`
	City          string    `gorm:"type:varchar(100)" json:"city"`
	PostalCode    string    `gorm:"type:varchar(20)" json:"postal_code"`
	WeightUnit    string    `gorm:"type:varchar(4);not null;default:LB" json:"weight_unit"`  // 重量单位（LB/KG）
	MeasureUnit   string    `gorm:"type:varchar(4);not null;default:IN" json:"measure_unit"` // 尺寸单位（IN/CM）
	WebhookURL    string    `gorm:"type:text" json:"webhook_url"` // 订单状态通知地址
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (MerchantStore) TableName() string {
	return "merchant_stores"
}
