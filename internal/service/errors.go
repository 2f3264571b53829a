package service

import (
	"fmt"

	"github.com/commerce-next/internal/integration"
)

// 服务层错误，按错误类别包装集成层哨兵。
var (
	ErrPaymentInvalid         = fmt.Errorf("%w: payment request invalid", integration.ErrValidation)
	ErrRefundExceedsTotal     = fmt.Errorf("%w: refund amount exceeds order total", integration.ErrValidation)
	ErrOrderNotFound          = fmt.Errorf("%w: order not found", integration.ErrNotFound)
	ErrStoreNotFound          = fmt.Errorf("%w: merchant store not found", integration.ErrNotFound)
	ErrTransactionNotFound    = fmt.Errorf("%w: no eligible transaction for order", integration.ErrNotFound)
	ErrModuleNotSupported     = fmt.Errorf("%w: integration module not supported", integration.ErrConfiguration)
	ErrModuleNotConfigured    = fmt.Errorf("%w: integration module not configured", integration.ErrConfiguration)
	ErrModuleInactive         = fmt.Errorf("%w: integration module inactive", integration.ErrConfiguration)
	ErrConfigurationCorrupted = fmt.Errorf("%w: stored module configuration corrupted", integration.ErrConfiguration)
)
