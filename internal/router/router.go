// Package router 路由与中间件装配。
package router

import (
	"fmt"
	"strings"

	"github.com/commerce-next/internal/cache"
	"github.com/commerce-next/internal/config"
	adminhandlers "github.com/commerce-next/internal/http/handlers/admin"
	publichandlers "github.com/commerce-next/internal/http/handlers/public"
	"github.com/commerce-next/internal/logger"
	"github.com/commerce-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.NewHandler(c)
	adminHandler := adminhandlers.NewHandler(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cn"
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 结账接口（面向店面）
		checkout := apiV1.Group("/checkout")
		{
			checkout.POST("/payments", publicHandler.ProcessPayment)
			checkout.POST("/shipping/quotes", publicHandler.GetShippingQuotes)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(cache.Client(), adminLoginRule, KeyByIP), adminHandler.Login)

			authorized := admin.Use(JWTAuthMiddleware(c.AuthService))
			{
				// 模块目录与商户配置
				authorized.GET("/modules/:moduleType", adminHandler.ListAvailableModules)
				authorized.GET("/stores/:storeID/modules/:moduleType/configurations", adminHandler.ListConfiguredModules)
				authorized.POST("/stores/:storeID/modules/:moduleType/configurations", adminHandler.SaveModuleConfiguration)
				authorized.DELETE("/stores/:storeID/modules/:moduleType/configurations/:moduleCode", adminHandler.RemoveModuleConfiguration)

				// 订单支付操作
				authorized.POST("/stores/:storeID/orders/:orderID/capture", adminHandler.CapturePayment)
				authorized.POST("/stores/:storeID/orders/:orderID/refund", adminHandler.RefundPayment)
				authorized.GET("/stores/:storeID/orders/:orderID/transactions", adminHandler.ListTransactions)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
