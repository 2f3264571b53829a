// 开发环境演示数据：一个店铺和一笔待支付订单。
package main

import (
	"fmt"
	"time"

	"github.com/commerce-next/internal/config"
	"github.com/commerce-next/internal/constants"
	"github.com/commerce-next/internal/logger"
	"github.com/commerce-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.InitIntegrationModules(); err != nil {
		stdLog.Fatalf("Failed to seed integration modules: %v", err)
	}

	store := models.MerchantStore{
		Code:          "DEFAULT",
		Name:          "Demo Store",
		Currency:      "USD",
		CountryCode:   "US",
		Address:       "100 Market St",
		StateProvince: "CA",
		City:          "San Francisco",
		PostalCode:    "94105",
		WeightUnit:    "LB",
		MeasureUnit:   "IN",
	}
	if err := models.DB.Where("code = ?", store.Code).FirstOrCreate(&store).Error; err != nil {
		stdLog.Fatalf("Failed to seed merchant store: %v", err)
	}

	orderNo := fmt.Sprintf("SEED-%d", time.Now().Unix())
	order := models.Order{
		OrderNo:       orderNo,
		StoreID:       store.ID,
		CustomerEmail: "demo@example.com",
		Status:        constants.OrderStatusOrdered,
		Currency:      "USD",
		TotalAmount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(59.90)),
		Totals: []models.OrderTotal{
			{Code: constants.OrderTotalCodeSubtotal, Title: "Subtotal", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(49.90)), SortOrder: 10},
			{Code: constants.OrderTotalCodeShipping, Title: "Shipping", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(10.00)), SortOrder: 20},
			{Code: constants.OrderTotalCodeTotal, Title: "Total", Amount: models.NewMoneyFromDecimal(decimal.NewFromFloat(59.90)), SortOrder: 30},
		},
	}
	if err := models.DB.Create(&order).Error; err != nil {
		stdLog.Fatalf("Failed to seed order: %v", err)
	}

	fmt.Printf("Seeded store %s (id=%d) and order %s (id=%d)\n", store.Code, store.ID, order.OrderNo, order.ID)
}
