package public

import (
	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/http/handlers/shared"
	"github.com/commerce-next/internal/http/response"
	"github.com/commerce-next/internal/models"
	"github.com/commerce-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// creditCardRequest 卡支付明细
type creditCardRequest struct {
	CardNumber  string `json:"card_number" binding:"required"`
	CardHolder  string `json:"card_holder" binding:"required"`
	ExpiryMonth string `json:"expiry_month" binding:"required"`
	ExpiryYear  string `json:"expiry_year" binding:"required"`
	CVV         string `json:"cvv"`
	Brand       string `json:"brand"`
}

// processPaymentRequest 处理支付请求体
type processPaymentRequest struct {
	StoreCode       string             `json:"store_code" binding:"required"`
	OrderNo         string             `json:"order_no" binding:"required"`
	ModuleCode      string             `json:"module_code" binding:"required"`
	PaymentType     string             `json:"payment_type" binding:"required"`
	TransactionType string             `json:"transaction_type"`
	Amount          string             `json:"amount" binding:"required"`
	Currency        string             `json:"currency"`
	Card            *creditCardRequest `json:"card"`
}

// ProcessPayment 处理一次支付
func (h *Handler) ProcessPayment(c *gin.Context) {
	var req processPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.BadRequest(c, "invalid amount")
		return
	}
	store, err := h.MerchantRepo.GetByCode(req.StoreCode)
	if err != nil {
		response.Error(c, response.CodeInternal, "store lookup failed")
		return
	}
	if store == nil {
		response.NotFound(c, "store not found")
		return
	}
	order, err := h.OrderRepo.GetByOrderNo(req.OrderNo)
	if err != nil {
		response.Error(c, response.CodeInternal, "order lookup failed")
		return
	}
	if order == nil || order.StoreID != store.ID {
		response.NotFound(c, "order not found")
		return
	}

	payment := &models.Payment{
		ModuleCode:      req.ModuleCode,
		PaymentType:     req.PaymentType,
		TransactionType: req.TransactionType,
		Amount:          models.NewMoneyFromDecimal(amount),
		Currency:        req.Currency,
	}
	if req.Card != nil {
		payment.Card = &models.CreditCard{
			CardNumber:  req.Card.CardNumber,
			CardHolder:  req.Card.CardHolder,
			ExpiryMonth: req.Card.ExpiryMonth,
			ExpiryYear:  req.Card.ExpiryYear,
			CVV:         req.Card.CVV,
			Brand:       req.Card.Brand,
		}
	}

	transaction, err := h.PaymentService.ProcessPayment(service.ProcessPaymentInput{
		StoreID: store.ID,
		OrderID: order.ID,
		Payment: payment,
		Context: c.Request.Context(),
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"order_no":         order.OrderNo,
		"transaction_type": transaction.TransactionType,
		"provider_ref":     transaction.ProviderRef,
		"amount":           transaction.Amount,
		"currency":         transaction.Currency,
		"persisted":        transaction.TransactionType != constants.TransactionTypeInit,
	})
}
