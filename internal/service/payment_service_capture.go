package service

import (
	"context"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/models"
	"github.com/commerce-next/internal/payment"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CapturePaymentInput 捕获支付输入
type CapturePaymentInput struct {
	StoreID uint
	OrderID uint
	Context context.Context
}

// ProcessCapturePayment 捕获订单上最近一次未捕获的授权。
// 找不到可捕获交易时直接报错，不改动订单状态。
func (s *PaymentService) ProcessCapturePayment(input CapturePaymentInput) (*models.Transaction, error) {
	log := paymentLogger("store_id", input.StoreID, "order_id", input.OrderID)

	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.StoreID != input.StoreID {
		return nil, ErrOrderNotFound
	}

	capturable, err := s.transactionRepo.GetCapturableByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if capturable == nil {
		log.Warnw("payment_capture_no_capturable")
		return nil, ErrTransactionNotFound
	}

	module, cfg, err := s.resolveModule(input.StoreID, capturable.ModuleCode)
	if err != nil {
		log.Warnw("payment_module_resolve_failed", "error", err)
		return nil, err
	}

	prior := payment.Prior{
		ProviderRef:     capturable.ProviderRef,
		Amount:          capturable.Amount.Decimal,
		TransactionType: capturable.TransactionType,
	}
	req := payment.Request{
		OrderNo:  order.OrderNo,
		Amount:   capturable.Amount.Decimal,
		Currency: capturable.Currency,
	}
	result, err := module.Capture(input.Context, cfg, prior, req)
	if err != nil {
		log.Warnw("payment_capture_failed", "error", err)
		return nil, err
	}

	transaction := &models.Transaction{
		OrderID:         order.ID,
		StoreID:         order.StoreID,
		ModuleCode:      capturable.ModuleCode,
		TransactionType: constants.TransactionTypeCapture,
		PaymentType:     capturable.PaymentType,
		Amount:          models.NewMoneyFromDecimal(result.Amount),
		Currency:        result.Currency,
		ProviderRef:     result.ProviderRef,
		DetailsJSON:     detailsToJSON(result.Details),
		TransactionDate: transactionNow(),
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.transactionRepo.WithTx(tx).Create(transaction); err != nil {
			return err
		}
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusProcessed, nil); err != nil {
			return err
		}
		return orderRepo.AppendStatusHistory(&models.OrderStatusHistory{
			OrderID:  order.ID,
			Status:   constants.OrderStatusProcessed,
			Comments: "payment captured via " + capturable.ModuleCode,
		})
	})
	if err != nil {
		log.Errorw("payment_capture_persist_failed", "error", err)
		return nil, err
	}

	s.notifyStatusChange(order, constants.OrderStatusProcessed, "payment captured")
	log.Infow("payment_capture_success", "provider_ref", transaction.ProviderRef)
	return transaction, nil
}

// RefundPaymentInput 退款输入
type RefundPaymentInput struct {
	StoreID uint
	OrderID uint
	Amount  decimal.Decimal
	Context context.Context
}

// ProcessRefund 退款。金额超出订单当前合计时在调用网关前拒绝；
// 成功后合计递减并追加退款总额行。
func (s *PaymentService) ProcessRefund(input RefundPaymentInput) (*models.Transaction, error) {
	log := paymentLogger("store_id", input.StoreID, "order_id", input.OrderID)

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentInvalid
	}

	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.StoreID != input.StoreID {
		return nil, ErrOrderNotFound
	}
	if input.Amount.GreaterThan(order.TotalAmount.Decimal) {
		log.Warnw("payment_refund_exceeds_total",
			"refund_amount", input.Amount.StringFixed(2),
			"order_total", order.TotalAmount.StringFixed(2),
		)
		return nil, ErrRefundExceedsTotal
	}

	refundable, err := s.transactionRepo.GetRefundableByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if refundable == nil {
		log.Warnw("payment_refund_no_refundable")
		return nil, ErrTransactionNotFound
	}

	module, cfg, err := s.resolveModule(input.StoreID, refundable.ModuleCode)
	if err != nil {
		log.Warnw("payment_module_resolve_failed", "error", err)
		return nil, err
	}

	partial := input.Amount.LessThan(order.TotalAmount.Decimal)
	prior := payment.Prior{
		ProviderRef:     refundable.ProviderRef,
		Amount:          refundable.Amount.Decimal,
		TransactionType: refundable.TransactionType,
	}
	result, err := module.Refund(input.Context, cfg, prior, payment.RefundRequest{
		OrderNo:  order.OrderNo,
		Amount:   input.Amount,
		Currency: refundable.Currency,
		Partial:  partial,
	})
	if err != nil {
		log.Warnw("payment_refund_failed", "error", err)
		return nil, err
	}

	transaction := &models.Transaction{
		OrderID:         order.ID,
		StoreID:         order.StoreID,
		ModuleCode:      refundable.ModuleCode,
		TransactionType: constants.TransactionTypeRefund,
		PaymentType:     refundable.PaymentType,
		Amount:          models.NewMoneyFromDecimal(result.Amount),
		Currency:        result.Currency,
		ProviderRef:     result.ProviderRef,
		DetailsJSON:     detailsToJSON(result.Details),
		TransactionDate: transactionNow(),
	}
	newTotal := order.TotalAmount.Sub(input.Amount)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.transactionRepo.WithTx(tx).Create(transaction); err != nil {
			return err
		}
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusRefunded, map[string]interface{}{
			"total_amount": newTotal,
		}); err != nil {
			return err
		}
		if err := orderRepo.AppendTotal(&models.OrderTotal{
			OrderID:   order.ID,
			Code:      constants.OrderTotalCodeRefund,
			Title:     "Refund",
			Amount:    models.NewMoneyFromDecimal(input.Amount.Neg()),
			SortOrder: 100,
		}); err != nil {
			return err
		}
		return orderRepo.AppendStatusHistory(&models.OrderStatusHistory{
			OrderID:  order.ID,
			Status:   constants.OrderStatusRefunded,
			Comments: "refund " + input.Amount.StringFixed(2) + " via " + refundable.ModuleCode,
		})
	})
	if err != nil {
		log.Errorw("payment_refund_persist_failed", "error", err)
		return nil, err
	}

	s.notifyStatusChange(order, constants.OrderStatusRefunded, "payment refunded")
	log.Infow("payment_refund_success",
		"provider_ref", transaction.ProviderRef,
		"partial", partial,
	)
	return transaction, nil
}

// ListTransactions 查询订单交易记录
func (s *PaymentService) ListTransactions(storeID, orderID uint) ([]models.Transaction, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.StoreID != storeID {
		return nil, ErrOrderNotFound
	}
	return s.transactionRepo.ListByOrderID(orderID)
}
