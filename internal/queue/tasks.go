package queue

import (
	"encoding/json"

	"github.com/commerce-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEvent 订单状态变更通知任务
	TaskOrderStatusEvent = constants.TaskOrderStatusEvent
)

// OrderStatusEventPayload 订单状态变更任务载荷
type OrderStatusEventPayload struct {
	OrderID  uint   `json:"order_id"`
	StoreID  uint   `json:"store_id"`
	Status   string `json:"status"`
	Comments string `json:"comments,omitempty"`
}

// NewOrderStatusEventTask 创建订单状态变更任务
func NewOrderStatusEventTask(payload OrderStatusEventPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEvent, body), nil
}
