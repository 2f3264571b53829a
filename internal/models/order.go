package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表。支付子系统只关心状态、币种和实付合计，
// 合计在退款后递减，明细由总额行与状态历史承载。
type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"`                 // 主键
	OrderNo       string         `gorm:"uniqueIndex;not null" json:"order_no"` // 订单编号
	StoreID       uint           `gorm:"index;not null" json:"store_id"`       // 店铺ID
	CustomerID    uint           `gorm:"index" json:"customer_id"`             // 客户ID
	CustomerEmail string         `gorm:"index" json:"customer_email"`          // 客户邮箱
	Status        string         `gorm:"index;not null" json:"status"`         // 订单状态
	Currency      string         `gorm:"not null" json:"currency"`             // 币种
	TotalAmount   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付合计
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Totals        []OrderTotal         `gorm:"foreignKey:OrderID" json:"totals,omitempty"`         // 总额行
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"` // 状态历史
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderTotal 订单总额行（小计/运费/合计/退款）
type OrderTotal struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"index;not null" json:"order_id"`
	Code      string    `gorm:"not null" json:"code"` // 行代码
	Title     string    `gorm:"type:varchar(200)" json:"title"`
	Amount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (OrderTotal) TableName() string {
	return "order_totals"
}

// OrderStatusHistory 订单状态历史
type OrderStatusHistory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"index;not null" json:"order_id"`
	Status    string    `gorm:"not null" json:"status"`
	Comments  string    `gorm:"type:text" json:"comments"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
