package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/models"
	"github.com/commerce-next/internal/provider"
	"github.com/commerce-next/internal/queue"
	"github.com/commerce-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.MerchantStore{},
		&models.Order{},
		&models.OrderTotal{},
		&models.OrderStatusHistory{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	container := &provider.Container{
		MerchantRepo: repository.NewMerchantRepository(db),
		OrderRepo:    repository.NewOrderRepository(db),
	}
	return NewConsumer(container), db
}

func newStatusEventTask(t *testing.T, payload queue.OrderStatusEventPayload) *asynq.Task {
	t.Helper()
	task, err := queue.NewOrderStatusEventTask(payload)
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	return task
}

func TestHandleOrderStatusEventDeliversWebhook(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("unmarshal webhook body failed: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := models.MerchantStore{Code: "S1", Name: "Store", Currency: "USD", CountryCode: "US", WebhookURL: server.URL}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store failed: %v", err)
	}
	order := models.Order{OrderNo: "ORD-900", StoreID: store.ID, Status: constants.OrderStatusProcessed, Currency: "USD"}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task := newStatusEventTask(t, queue.OrderStatusEventPayload{
		OrderID:  order.ID,
		StoreID:  store.ID,
		Status:   constants.OrderStatusProcessed,
		Comments: "captured",
	})
	if err := consumer.handleOrderStatusEvent(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}

	if received["order_no"] != "ORD-900" {
		t.Fatalf("webhook order_no want ORD-900 got %v", received["order_no"])
	}
	if received["status"] != constants.OrderStatusProcessed {
		t.Fatalf("webhook status want processed got %v", received["status"])
	}
	if received["comments"] != "captured" {
		t.Fatalf("webhook comments want captured got %v", received["comments"])
	}
}

func TestHandleOrderStatusEventSkipsStoreWithoutWebhook(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	store := models.MerchantStore{Code: "S2", Name: "Store", Currency: "USD", CountryCode: "US"}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store failed: %v", err)
	}
	order := models.Order{OrderNo: "ORD-901", StoreID: store.ID, Status: constants.OrderStatusOrdered, Currency: "USD"}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task := newStatusEventTask(t, queue.OrderStatusEventPayload{
		OrderID: order.ID,
		StoreID: store.ID,
		Status:  constants.OrderStatusOrdered,
	})
	if err := consumer.handleOrderStatusEvent(context.Background(), task); err != nil {
		t.Fatalf("task without webhook should be dropped, got %v", err)
	}
}

func TestHandleOrderStatusEventRejectedWebhook(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := models.MerchantStore{Code: "S3", Name: "Store", Currency: "USD", CountryCode: "US", WebhookURL: server.URL}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store failed: %v", err)
	}
	order := models.Order{OrderNo: "ORD-902", StoreID: store.ID, Status: constants.OrderStatusRefunded, Currency: "USD"}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task := newStatusEventTask(t, queue.OrderStatusEventPayload{
		OrderID: order.ID,
		StoreID: store.ID,
		Status:  constants.OrderStatusRefunded,
	})
	err := consumer.handleOrderStatusEvent(context.Background(), task)
	if err == nil || !strings.Contains(err.Error(), "webhook status 500") {
		t.Fatalf("rejected webhook should fail the task, got %v", err)
	}
}

func TestHandleOrderStatusEventMissingOrder(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := newStatusEventTask(t, queue.OrderStatusEventPayload{
		OrderID: 4242,
		StoreID: 1,
		Status:  constants.OrderStatusProcessed,
	})
	if err := consumer.handleOrderStatusEvent(context.Background(), task); err != nil {
		t.Fatalf("missing order should be dropped without retry, got %v", err)
	}
}
