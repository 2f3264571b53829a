package models

// Payment 一次支付尝试。仅在请求期间存在，
// 不落库，落库的只有其产生的 Transaction。
type Payment struct {
	ModuleCode      string      `json:"module_code"`      // 目标支付模块
	PaymentType     string      `json:"payment_type"`     // creditcard / moneyorder
	TransactionType string      `json:"transaction_type"` // 请求的交易类型（可被配置覆盖）
	Amount          Money       `json:"amount"`
	Currency        string      `json:"currency"`
	Card            *CreditCard `json:"card,omitempty"`
}

// CreditCard 卡支付明细
type CreditCard struct {
	CardNumber  string `json:"card_number"`
	CardHolder  string `json:"card_holder"`
	ExpiryMonth string `json:"expiry_month"` // MM
	ExpiryYear  string `json:"expiry_year"`  // YYYY
	CVV         string `json:"cvv"`
	Brand       string `json:"brand,omitempty"` // 校验时按卡号推断
}
