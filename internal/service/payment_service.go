package service

import (
	"context"
	"strings"
	"time"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/integration"
	"github.com/commerce-next/internal/logger"
	"github.com/commerce-next/internal/models"
	"github.com/commerce-next/internal/payment"
	"github.com/commerce-next/internal/queue"
	"github.com/commerce-next/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService 支付编排服务
type PaymentService struct {
	orderRepo       repository.OrderRepository
	transactionRepo repository.TransactionRepository
	moduleConfigSvc *ModuleConfigurationService
	cardValidator   *CardValidator
	registry        *payment.Registry
	queueClient     *queue.Client
}

// NewPaymentService 创建支付服务
func NewPaymentService(orderRepo repository.OrderRepository, transactionRepo repository.TransactionRepository, moduleConfigSvc *ModuleConfigurationService, cardValidator *CardValidator, registry *payment.Registry, queueClient *queue.Client) *PaymentService {
	return &PaymentService{
		orderRepo:       orderRepo,
		transactionRepo: transactionRepo,
		moduleConfigSvc: moduleConfigSvc,
		cardValidator:   cardValidator,
		registry:        registry,
		queueClient:     queueClient,
	}
}

// ProcessPaymentInput 处理支付输入
type ProcessPaymentInput struct {
	StoreID uint
	OrderID uint
	Payment *models.Payment
	Context context.Context
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// ProcessPayment 处理一次支付。交易类型默认 authorizecapture，
// init 只调用模块、不落库。
func (s *PaymentService) ProcessPayment(input ProcessPaymentInput) (*models.Transaction, error) {
	if input.Payment == nil || input.Payment.ModuleCode == "" {
		return nil, ErrPaymentInvalid
	}
	if input.Payment.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPaymentInvalid
	}

	log := paymentLogger(
		"store_id", input.StoreID,
		"order_id", input.OrderID,
		"module_code", input.Payment.ModuleCode,
	)

	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.StoreID != input.StoreID {
		return nil, ErrOrderNotFound
	}

	module, cfg, err := s.resolveModule(input.StoreID, input.Payment.ModuleCode)
	if err != nil {
		log.Warnw("payment_module_resolve_failed", "error", err)
		return nil, err
	}

	if input.Payment.PaymentType == constants.PaymentTypeCreditCard {
		if err := s.cardValidator.Validate(input.Payment.Card); err != nil {
			log.Warnw("payment_card_validation_failed", "error", err)
			return nil, err
		}
	}

	txnType := resolveTransactionType(input.Payment, cfg)
	req := toModuleRequest(order, input.Payment)
	ctx := input.Context

	var result *payment.Result
	switch txnType {
	case constants.TransactionTypeInit:
		result, err = module.InitTransaction(ctx, cfg, req)
		if err != nil {
			log.Warnw("payment_init_failed", "error", err)
			return nil, err
		}
		// init 不落库
		return resultToTransaction(order, input.Payment, result), nil
	case constants.TransactionTypeAuthorize:
		result, err = module.Authorize(ctx, cfg, req)
	case constants.TransactionTypeAuthorizeCapture:
		result, err = module.AuthorizeAndCapture(ctx, cfg, req)
	default:
		return nil, ErrPaymentInvalid
	}
	if err != nil {
		log.Warnw("payment_module_call_failed", "transaction_type", txnType, "error", err)
		return nil, err
	}

	transaction := resultToTransaction(order, input.Payment, result)
	newStatus := ""
	if txnType == constants.TransactionTypeAuthorizeCapture &&
		input.Payment.PaymentType != constants.PaymentTypeMoneyOrder {
		// 线下支付方式停留在已下单，等商家确认
		newStatus = constants.OrderStatusProcessed
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.transactionRepo.WithTx(tx).Create(transaction); err != nil {
			return err
		}
		if newStatus == "" {
			return nil
		}
		orderRepo := s.orderRepo.WithTx(tx)
		if err := orderRepo.UpdateStatus(order.ID, newStatus, nil); err != nil {
			return err
		}
		return orderRepo.AppendStatusHistory(&models.OrderStatusHistory{
			OrderID:  order.ID,
			Status:   newStatus,
			Comments: "payment " + txnType + " via " + input.Payment.ModuleCode,
		})
	})
	if err != nil {
		log.Errorw("payment_persist_failed", "transaction_type", txnType, "error", err)
		return nil, err
	}

	if newStatus != "" {
		s.notifyStatusChange(order, newStatus, "payment "+txnType)
	}
	log.Infow("payment_process_success",
		"transaction_type", txnType,
		"provider_ref", transaction.ProviderRef,
	)
	return transaction, nil
}

func (s *PaymentService) resolveModule(storeID uint, moduleCode string) (payment.Module, *integration.Configuration, error) {
	cfg, err := s.moduleConfigSvc.GetConfiguration(storeID, constants.ConfigGroupPaymentModules, moduleCode)
	if err != nil {
		return nil, nil, err
	}
	if cfg == nil {
		return nil, nil, ErrModuleNotConfigured
	}
	if !cfg.Active {
		return nil, nil, ErrModuleInactive
	}
	module, ok := s.registry.Get(moduleCode)
	if !ok {
		return nil, nil, ErrModuleNotSupported
	}
	return module, cfg, nil
}

// resolveTransactionType 请求值优先，其次配置覆盖，最后默认 authorizecapture
func resolveTransactionType(p *models.Payment, cfg *integration.Configuration) string {
	if t := strings.ToLower(strings.TrimSpace(p.TransactionType)); t != "" {
		return t
	}
	if t := strings.ToLower(strings.TrimSpace(cfg.TransactionType)); t != "" {
		return t
	}
	return constants.TransactionTypeAuthorizeCapture
}

func toModuleRequest(order *models.Order, p *models.Payment) payment.Request {
	req := payment.Request{
		OrderNo:  order.OrderNo,
		Amount:   p.Amount.Decimal,
		Currency: p.Currency,
		Customer: order.CustomerEmail,
	}
	if req.Currency == "" {
		req.Currency = order.Currency
	}
	if p.Card != nil {
		req.Card = &payment.Card{
			Number:      p.Card.CardNumber,
			Holder:      p.Card.CardHolder,
			ExpiryMonth: p.Card.ExpiryMonth,
			ExpiryYear:  p.Card.ExpiryYear,
			CVV:         p.Card.CVV,
			Brand:       p.Card.Brand,
		}
	}
	return req
}

func resultToTransaction(order *models.Order, p *models.Payment, result *payment.Result) *models.Transaction {
	return &models.Transaction{
		OrderID:         order.ID,
		StoreID:         order.StoreID,
		ModuleCode:      p.ModuleCode,
		TransactionType: result.TransactionType,
		PaymentType:     p.PaymentType,
		Amount:          models.NewMoneyFromDecimal(result.Amount),
		Currency:        result.Currency,
		ProviderRef:     result.ProviderRef,
		DetailsJSON:     detailsToJSON(result.Details),
		TransactionDate: transactionNow(),
	}
}

func detailsToJSON(details map[string]string) models.JSON {
	mapped := models.JSON{}
	for key, value := range details {
		mapped[key] = value
	}
	return mapped
}

// transactionNow 可在测试中替换
var transactionNow = time.Now

func (s *PaymentService) notifyStatusChange(order *models.Order, status, comments string) {
	if s.queueClient == nil {
		return
	}
	err := s.queueClient.EnqueueOrderStatusEvent(queue.OrderStatusEventPayload{
		OrderID:  order.ID,
		StoreID:  order.StoreID,
		Status:   status,
		Comments: comments,
	})
	if err != nil {
		paymentLogger("order_id", order.ID).Warnw("order_status_event_enqueue_failed", "error", err)
	}
}
