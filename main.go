package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"settlement-service/controllers"
	"settlement-service/database"
	"settlement-service/kafka"
	"settlement-service/middleware"
	aws_pkg "settlement-service/pkg/aws"
	"settlement-service/repository"
	"settlement-service/routes"
	"settlement-service/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// Database
	db, err := database.ConnectPostgres(database.Config{
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		DBName:   cfg.PostgresDB,
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		SSLMode:  cfg.PostgresSSLMode,
		TimeZone: cfg.PostgresTimeZone,
	}, logger, database.Migrations()...)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}

	// Redis (webhook dedupe; non-fatal when unreachable)
	var redisClient *redis.Client
	if opts, err := redis.ParseURL(cfg.RedisURL); err == nil {
		redisClient = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unreachable, webhook dedupe disabled", zap.Error(err))
			redisClient = nil
		}
		cancel()
	} else {
		logger.Warn("Invalid REDIS_URL, webhook dedupe disabled", zap.Error(err))
	}

	// Kafka producer
	var producer kafka.ProducerAPI
	if cfg.KafkaBrokers != "" {
		producer = kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic, logger)
	} else {
		logger.Warn("KAFKA_BROKERS not set, event publishing to Kafka disabled")
	}

	// SNS fan-out (non-fatal)
	var snsClient aws_pkg.SNSPublisher
	if cfg.SNSTopicArn != "" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		} else {
			logger.Warn("AWS config load failed, SNS fan-out disabled", zap.Error(err))
		}
	}

	// Dependency injection
	transactor := repository.NewGormTransactor(db)
	orderRepo := repository.NewGormOrderRepository(db)
	walletRepo := repository.NewGormWalletRepository(db)
	productRepo := repository.NewGormProductRepository(db)
	discountRepo := repository.NewGormDiscountRepository(db)
	flashSaleRepo := repository.NewGormFlashSaleRepository(db)

	events := services.NewEventPublisher(producer, snsClient, cfg.SNSTopicArn, logger)
	pricingService := services.NewPricingService(flashSaleRepo, discountRepo)
	walletService := services.NewWalletService(walletRepo, events, logger)
	orderService := services.NewOrderService(transactor, orderRepo, walletRepo, productRepo, events, logger)
	catalogClient := services.NewCatalogClient(cfg.CatalogURL, productRepo, logger)
	checkoutService := services.NewCheckoutService(transactor, orderRepo, walletRepo, productRepo,
		discountRepo, pricingService, catalogClient, events, logger)
	flashSaleService := services.NewFlashSaleService(flashSaleRepo, logger)
	discountService := services.NewDiscountService(discountRepo, logger)
	var deduper services.GatewayDeduper
	if redisClient != nil {
		deduper = services.NewRedisGatewayDeduper(redisClient)
	}
	webhookService := services.NewWebhookService(orderService, deduper, logger)
	sweeper := services.NewExpirySweeper(orderRepo, orderService, cfg.SweepInterval, cfg.PaymentWindow, logger)

	ctrls := &routes.Controllers{
		Checkout:  controllers.NewCheckoutController(checkoutService),
		Orders:    controllers.NewOrderController(orderService),
		Wallets:   controllers.NewWalletController(walletService),
		FlashSale: controllers.NewFlashSaleController(flashSaleService),
		Discounts: controllers.NewDiscountController(discountService, pricingService),
		Webhooks:  controllers.NewWebhookController(webhookService),
	}

	// Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimitMiddleware())
	r.Use(middleware.RequestLogger(logger))

	// Request timeout
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	routes.RegisterRoutes(r, ctrls, []byte(cfg.JWTSecret))

	// Expiry sweeper
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()
	go sweeper.Start(sweeperCtx)

	// HTTP server
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Settlement service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	sweeperCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("Kafka producer close error", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	logger.Info("Settlement service stopped gracefully")
}
