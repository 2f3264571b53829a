package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/commerce-next/internal/logger"
	"github.com/commerce-next/internal/provider"
	"github.com/commerce-next/internal/queue"

	"github.com/hibiken/asynq"
)

const webhookTimeout = 10 * time.Second

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	httpClient *http.Client
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container:  c,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEvent, c.handleOrderStatusEvent)
}

// handleOrderStatusEvent 把订单状态变更推送到商户 webhook
func (c *Consumer) handleOrderStatusEvent(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_event_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEventPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_event_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.StoreID == 0 {
		logger.Debugw("worker_order_status_event_skip_invalid_payload",
			"order_id", payload.OrderID, "store_id", payload.StoreID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_event_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_event_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	store, err := c.MerchantRepo.GetByID(payload.StoreID)
	if err != nil {
		logger.Warnw("worker_order_status_event_fetch_store_failed", "store_id", payload.StoreID, "error", err)
		return err
	}
	if store == nil || strings.TrimSpace(store.WebhookURL) == "" {
		logger.Debugw("worker_order_status_event_skip_no_webhook", "store_id", payload.StoreID)
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"order_no": order.OrderNo,
		"status":   payload.Status,
		"comments": payload.Comments,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, store.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warnw("worker_order_status_event_webhook_failed", "order_id", order.ID, "error", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnw("worker_order_status_event_webhook_rejected",
			"order_id", order.ID, "status_code", resp.StatusCode)
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	logger.Infow("worker_order_status_event_delivered",
		"order_id", order.ID, "order_no", order.OrderNo, "status", payload.Status)
	return nil
}
