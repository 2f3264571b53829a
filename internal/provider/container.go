package provider

import (
	"time"

	"github.com/commerce-next/internal/cache"
	"github.com/commerce-next/internal/config"
	"github.com/commerce-next/internal/logger"
	"github.com/commerce-next/internal/models"
	"github.com/commerce-next/internal/payment"
	"github.com/commerce-next/internal/payment/moneyorder"
	"github.com/commerce-next/internal/payment/stripecard"
	"github.com/commerce-next/internal/queue"
	"github.com/commerce-next/internal/repository"
	"github.com/commerce-next/internal/secret"
	"github.com/commerce-next/internal/service"
	"github.com/commerce-next/internal/shipping"
	"github.com/commerce-next/internal/shipping/ups"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	MerchantRepo       repository.MerchantRepository
	OrderRepo          repository.OrderRepository
	TransactionRepo    repository.TransactionRepository
	MerchantConfigRepo repository.MerchantConfigurationRepository
	ModuleRepo         repository.IntegrationModuleRepository

	// Registries
	PaymentRegistry  *payment.Registry
	ShippingRegistry *shipping.Registry

	// Services
	AuthService         *service.AuthService
	ModuleConfigService *service.ModuleConfigurationService
	PaymentService      *service.PaymentService
	ShippingService     *service.ShippingService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initRegistries()
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := models.DB
	c.MerchantRepo = repository.NewMerchantRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
	c.MerchantConfigRepo = repository.NewMerchantConfigurationRepository(db)
	c.ModuleRepo = repository.NewIntegrationModuleRepository(db)
}

func (c *Container) initRegistries() {
	c.PaymentRegistry = payment.NewRegistry()
	c.PaymentRegistry.Register(stripecard.New())
	c.PaymentRegistry.Register(moneyorder.New())

	c.ShippingRegistry = shipping.NewRegistry()
	c.ShippingRegistry.Register(ups.New())
}

func (c *Container) initServices() error {
	cipher, err := secret.NewCipher(c.Config.Security.ConfigSecret, c.Config.Security.ConfigSecretSalt)
	if err != nil {
		return err
	}
	c.AuthService = service.NewAuthService(&c.Config.Security)
	c.ModuleConfigService = service.NewModuleConfigurationService(c.MerchantConfigRepo, cipher)
	c.PaymentService = service.NewPaymentService(
		c.OrderRepo,
		c.TransactionRepo,
		c.ModuleConfigService,
		service.NewCardValidator(c.Config.Checkout.CardValidationEnabled),
		c.PaymentRegistry,
		c.QueueClient,
	)
	c.ShippingService = service.NewShippingService(
		c.MerchantRepo,
		c.ModuleRepo,
		c.ModuleConfigService,
		c.ShippingRegistry,
		c.Config.Shipping.Environment,
		time.Duration(c.Config.Shipping.QuoteCacheTTLSec)*time.Second,
	)
	return nil
}
