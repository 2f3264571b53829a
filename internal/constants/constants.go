package constants

// 订单状态常量
const (
	OrderStatusOrdered   = "ordered"
	OrderStatusProcessed = "processed"
	OrderStatusDelivered = "delivered"
	OrderStatusRefunded  = "refunded"
	OrderStatusCanceled  = "canceled"
)

// 交易类型常量
const (
	TransactionTypeInit             = "init"
	TransactionTypeAuthorize        = "authorize"
	TransactionTypeAuthorizeCapture = "authorizecapture"
	TransactionTypeCapture          = "capture"
	TransactionTypeRefund           = "refund"
)

// 支付方式常量
const (
	PaymentTypeCreditCard = "creditcard"
	PaymentTypeMoneyOrder = "moneyorder"
)

// 集成模块类型常量
const (
	ModuleTypePayment  = "payment"
	ModuleTypeShipping = "shipping"
)

// 内置模块代码常量
const (
	ModuleCodeStripeCard = "stripecard"
	ModuleCodeMoneyOrder = "moneyorder"
	ModuleCodeUPS        = "ups"
)

// 加密配置分组常量
const (
	ConfigGroupPaymentModules  = "PAYMENT_MODULES"
	ConfigGroupShippingModules = "SHIPPING_MODULES"
)

// 集成环境常量
const (
	EnvironmentTest       = "test"
	EnvironmentProduction = "production"
)

// 订单总额行代码常量
const (
	OrderTotalCodeSubtotal = "subtotal"
	OrderTotalCodeShipping = "shipping"
	OrderTotalCodeTotal    = "total"
	OrderTotalCodeRefund   = "refund"
)

// 卡品牌常量
const (
	CardBrandVisa       = "visa"
	CardBrandMastercard = "mastercard"
	CardBrandAmex       = "amex"
	CardBrandDiscover   = "discover"
	CardBrandDiners     = "diners"
)

// 计量单位常量
const (
	WeightUnitLB  = "LB"
	WeightUnitKG  = "KG"
	MeasureUnitIN = "IN"
	MeasureUnitCM = "CM"
)

// 队列与任务常量
const (
	QueueDefault         = "default"
	TaskOrderStatusEvent = "order:status_event"
)
