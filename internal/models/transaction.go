package models

import "time"

// Transaction 支付网关交互记录。捕获必须引用同订单先前的授权，
// 退款必须引用可退款交易，由服务层保证。
type Transaction struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	OrderID         uint      `gorm:"index;not null" json:"order_id"`         // 订单ID
	StoreID         uint      `gorm:"index;not null" json:"store_id"`         // 店铺ID
	ModuleCode      string    `gorm:"index;not null" json:"module_code"`      // 模块代码
	TransactionType string    `gorm:"index;not null" json:"transaction_type"` // 交易类型
	PaymentType     string    `gorm:"not null" json:"payment_type"`           // 支付方式
	Amount          Money     `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency        string    `gorm:"not null" json:"currency"`
	ProviderRef     string    `gorm:"index" json:"provider_ref"` // 第三方交易号
	DetailsJSON     JSON      `gorm:"type:json" json:"details"`  // 网关响应明细
	TransactionDate time.Time `gorm:"index;not null" json:"transaction_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}
