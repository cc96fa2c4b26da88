package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"printshop-backend/internal/config"
	orderHandler "printshop-backend/internal/domains/order/handler"
	orderRepo "printshop-backend/internal/domains/order/repository"
	orderService "printshop-backend/internal/domains/order/service"
	"printshop-backend/internal/domains/payment/gateway/redsys"
	paymentHandler "printshop-backend/internal/domains/payment/handler"
	paymentJob "printshop-backend/internal/domains/payment/job"
	paymentRepo "printshop-backend/internal/domains/payment/repository"
	paymentService "printshop-backend/internal/domains/payment/service"
	infraCache "printshop-backend/internal/infrastructure/cache"
	"printshop-backend/internal/infrastructure/database"
	"printshop-backend/internal/infrastructure/email"
	"printshop-backend/pkg/cache"
	"printshop-backend/pkg/jwt"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container holds every dependency of the API and the worker. Build order:
// config, infrastructure, repositories, services, handlers.
type Container struct {
	// Infrastructure
	Config       *config.Config
	DB           *database.PostgresDB
	Redis        *infraCache.RedisClient
	Cache        cache.Cache
	AsynqClient  *asynq.Client
	JWTManager   *jwt.Manager
	RedsysClient *redsys.Client
	ReplayGuard  *infraCache.ReplayGuard
	EmailService email.EmailService

	// Repositories
	OrderRepo       orderRepo.OrderRepository
	MappingRepo     paymentRepo.OrderReferenceRepository
	CallbackLogRepo paymentRepo.CallbackLogRepository

	// Services
	OrderService   orderService.OrderService
	PaymentService paymentService.PaymentService

	// Handlers
	OrderHandler   *orderHandler.OrderHandler
	PaymentHandler *paymentHandler.PaymentHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

func NewContainer() (*Container, error) {
	log.Info().Msg("Initializing DI container")

	c := &Container{}

	// Step 1: Configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	// Step 2: Infrastructure
	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// Step 3: Repositories
	c.initRepositories()

	// Step 4: Services
	if err := c.initServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// Step 5: Handlers
	c.initHandlers()

	log.Info().
		Str("environment", cfg.App.Environment).
		Str("redsys_environment", cfg.Redsys.Environment).
		Msg("DI container initialized")
	return c, nil
}

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	// PostgreSQL is required
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		return fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db

	// Redis backs the replay guard and the task queue. Both degrade
	// gracefully, so a failed ping only warns. The guard stays wired: each
	// call is bounded and fails open until Redis comes back.
	c.Redis = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, replay guard and confirmation emails degraded")
	}
	c.Cache = c.Redis
	c.ReplayGuard = infraCache.NewReplayGuard(c.Cache, cfg.Redsys.ReplayTTL)

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	c.EmailService = email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		ShopName: cfg.SMTP.ShopName,
		ShopURL:  cfg.SMTP.ShopURL,
	})

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.OrderRepo = orderRepo.NewPostgresOrderRepository(pool)
	c.MappingRepo = paymentRepo.NewOrderReferenceRepository(pool)
	c.CallbackLogRepo = paymentRepo.NewCallbackLogRepository(pool)
}

func (c *Container) initServices() error {
	redsysClient, err := redsys.NewClient(c.Config.Redsys.GatewayConfig())
	if err != nil {
		return err
	}
	c.RedsysClient = redsysClient

	c.OrderService = orderService.NewOrderService(c.OrderRepo)

	c.PaymentService = paymentService.NewPaymentService(
		paymentService.Dependencies{
			Gateway:         c.RedsysClient,
			References:      redsys.NewReferenceGenerator(nil),
			MappingRepo:     c.MappingRepo,
			CallbackLogRepo: c.CallbackLogRepo,
			OrderRepo:       c.OrderRepo,
			Notifier:        paymentJob.NewConfirmationEnqueuer(c.AsynqClient),
			ReplayGuard:     c.ReplayGuard,
		},
		paymentService.Config{
			Currency:          c.Config.Redsys.Currency,
			DescriptionFormat: c.Config.Redsys.Description,
			NotifyTimeout:     c.Config.Redsys.NotifyTimeout,
			ReplayTimeout:     c.Config.Redsys.ReplayTimeout,
		},
	)

	return nil
}

func (c *Container) initHandlers() {
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.PaymentService)
}

// Cleanup releases connections on shutdown. Safe on a partially built
// container.
func (c *Container) Cleanup() {
	log.Info().Msg("Cleaning up container resources")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close task queue client")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}
}
