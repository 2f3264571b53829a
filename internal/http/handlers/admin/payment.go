package admin

import (
	"strconv"

	"github.com/commerce-next/internal/http/handlers/shared"
	"github.com/commerce-next/internal/http/response"
	"github.com/commerce-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func parseOrderID(c *gin.Context) (uint, bool) {
	orderID, err := strconv.ParseUint(c.Param("orderID"), 10, 32)
	if err != nil || orderID == 0 {
		response.BadRequest(c, "invalid order id")
		return 0, false
	}
	return uint(orderID), true
}

// CapturePayment 捕获订单上的授权
func (h *Handler) CapturePayment(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	transaction, err := h.PaymentService.ProcessCapturePayment(service.CapturePaymentInput{
		StoreID: storeID,
		OrderID: orderID,
		Context: c.Request.Context(),
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"transaction_type": transaction.TransactionType,
		"provider_ref":     transaction.ProviderRef,
		"amount":           transaction.Amount,
		"currency":         transaction.Currency,
	})
}

// refundRequest 退款请求体
type refundRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// RefundPayment 订单退款
func (h *Handler) RefundPayment(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.BadRequest(c, "invalid amount")
		return
	}
	transaction, err := h.PaymentService.ProcessRefund(service.RefundPaymentInput{
		StoreID: storeID,
		OrderID: orderID,
		Amount:  amount,
		Context: c.Request.Context(),
	})
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"transaction_type": transaction.TransactionType,
		"provider_ref":     transaction.ProviderRef,
		"amount":           transaction.Amount,
		"currency":         transaction.Currency,
	})
}

// ListTransactions 查询订单交易记录
func (h *Handler) ListTransactions(c *gin.Context) {
	storeID, ok := parseStoreID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	transactions, err := h.PaymentService.ListTransactions(storeID, orderID)
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	response.Success(c, gin.H{"transactions": transactions})
}
