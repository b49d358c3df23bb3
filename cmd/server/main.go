package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	commissionapp "github.com/bridgecart/backend/internal/application/commission"
	eventapp "github.com/bridgecart/backend/internal/application/event"
	paymentapp "github.com/bridgecart/backend/internal/application/payment"
	settlementapp "github.com/bridgecart/backend/internal/application/settlement"
	voucherapp "github.com/bridgecart/backend/internal/application/voucher"
	walletapp "github.com/bridgecart/backend/internal/application/wallet"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/infrastructure/auth"
	"github.com/bridgecart/backend/internal/infrastructure/cache"
	"github.com/bridgecart/backend/internal/infrastructure/config"
	"github.com/bridgecart/backend/internal/infrastructure/event"
	"github.com/bridgecart/backend/internal/infrastructure/logger"
	paygateway "github.com/bridgecart/backend/internal/infrastructure/payment"
	"github.com/bridgecart/backend/internal/infrastructure/persistence"
	"github.com/bridgecart/backend/internal/infrastructure/telemetry"
	"github.com/bridgecart/backend/internal/interfaces/http/handler"
	"github.com/bridgecart/backend/internal/interfaces/http/middleware"
	"github.com/bridgecart/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/bridgecart/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			BridgeCart Backend API
//	@version		1.0
//	@description	Ledger and settlement backend for cross-border group purchasing
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/bridgecart/backend
//	@contact.email	support@bridgecart.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BridgeCart Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize OpenTelemetry providers
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Initialize repositories
	walletRepo := persistence.NewGormWalletRepository(db.DB)
	walletTxRepo := persistence.NewGormWalletTransactionRepository(db.DB)
	codeRepo := persistence.NewGormCodeRepository(db.DB)
	distributionRepo := persistence.NewGormDistributionRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	commissionRepo := persistence.NewGormCommissionRepository(db.DB)
	agentRepo := persistence.NewGormAgentRepository(db.DB)
	pointRepo := persistence.NewGormPointRepository(db.DB)
	agentOrderRepo := persistence.NewGormAgentOrderRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	txManager := persistence.NewGormTransactionManager(db.DB)

	// Initialize event serializer and register all event types. The
	// versioned serializer upgrades outbox payloads written under older
	// event schemas before handing them to the bus.
	eventSerializer := event.NewVersionedSerializer(log)
	if err := event.RegisterAllEvents(eventSerializer); err != nil {
		log.Fatal("Failed to register domain events", zap.Error(err))
	}

	// Create outbox publisher for transactional event saving
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)

	// Inject outbox publisher into repositories whose aggregates drive
	// cross-context workflows, so their events survive process crashes.
	// All three commission triggers (order submitted, code sold, order
	// delivered) must reach the outbox, not just the in-memory bus.
	agentOrderRepo.SetOutboxEventSaver(outboxPublisher)
	paymentRepo.SetOutboxEventSaver(outboxPublisher)
	distributionRepo.SetOutboxEventSaver(outboxPublisher)
	orderRepo.SetOutboxEventSaver(outboxPublisher)

	// Idempotency store for webhook deduplication and event handler
	// deduplication. Redis when reachable, in-memory otherwise.
	var idempotencyStore shared.IdempotencyStore
	redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = redisStore
		log.Info("Redis idempotency store connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Payment gateway client
	gateway, err := paygateway.NewHTTPGateway(&paygateway.Config{
		BaseURL:       cfg.Gateway.BaseURL,
		MerchantID:    cfg.Gateway.MerchantID,
		APIKey:        cfg.Gateway.APIKey,
		WebhookSecret: cfg.Gateway.WebhookSecret,
		Timeout:       cfg.Gateway.Timeout,
		ReturnURL:     cfg.Gateway.ReturnURL,
		NotifyURL:     cfg.Gateway.NotifyURL,
	})
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Initialize application services
	walletService := walletapp.NewService(walletRepo, walletTxRepo, eventBus, log)
	voucherService := voucherapp.NewService(codeRepo, walletRepo, walletTxRepo, txManager, eventBus, log)
	paymentService := paymentapp.NewService(paymentRepo, walletRepo, walletTxRepo, gateway, txManager, eventBus, log)
	callbackService := paymentapp.NewCallbackService(paymentService, paymentRepo, gateway, idempotencyStore, log)
	commissionService := commissionapp.NewService(commissionRepo, agentRepo, txManager, eventBus, log)
	settlementService := settlementapp.NewService(
		agentOrderRepo, agentRepo, pointRepo, orderRepo,
		codeRepo, distributionRepo, commissionRepo,
		walletRepo, walletTxRepo, txManager, eventBus, log,
	)
	recalculationService := settlementapp.NewRecalculationService(
		agentRepo, pointRepo, agentOrderRepo, commissionRepo, distributionRepo, log,
	)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Business metrics for payment flows
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meterProvider.Meter("bridgecart"),
		Logger: log,
	})
	if err != nil {
		log.Warn("Business metrics unavailable", zap.Error(err))
	} else {
		paymentService.SetBusinessMetrics(businessMetrics)
	}

	// Register event handlers for cross-context integration. Handlers are
	// wrapped with idempotency checking because events can arrive twice:
	// once from the synchronous bus publish and once from outbox redelivery.

	// Agent order submitted -> pending agent commission
	agentOrderSubmittedHandler := commissionapp.NewAgentOrderSubmittedHandler(commissionRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(agentOrderSubmittedHandler, idempotencyStore, log))

	// Code sold at a pickup point -> point commission on the sale
	codeSoldHandler := commissionapp.NewCodeSoldHandler(commissionRepo, pointRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(codeSoldHandler, idempotencyStore, log))

	// Order delivered at a pickup point -> point commission on the order
	orderDeliveredHandler := commissionapp.NewOrderDeliveredHandler(commissionRepo, pointRepo, log)
	eventBus.Subscribe(event.NewIdempotentHandler(orderDeliveredHandler, idempotencyStore, log))

	log.Info("Event handlers registered",
		zap.Strings("agent_order_submitted_events", agentOrderSubmittedHandler.EventTypes()),
		zap.Strings("code_sold_events", codeSoldHandler.EventTypes()),
		zap.Strings("order_delivered_events", orderDeliveredHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery.
	// The processor reads events from the outbox table and republishes them
	// to the event bus.
	if cfg.Event.ProcessorEnabled {
		outboxProcessorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			outboxProcessorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			outboxProcessorConfig.PollInterval = cfg.Event.PollInterval
		}
		outboxProcessorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			outboxProcessorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}

		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxProcessorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxProcessorConfig.BatchSize),
			zap.Duration("poll_interval", outboxProcessorConfig.PollInterval),
		)
	} else {
		log.Info("Outbox processor disabled")
	}

	// JWT service for API authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Token blacklist for revoked sessions. Redis when reachable so
	// revocations are shared across instances, in-memory otherwise.
	var tokenBlacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, falling back to in-memory token blacklist", zap.Error(err))
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		tokenBlacklist = redisBlacklist
		defer redisBlacklist.Close()
	}

	// Initialize HTTP handlers
	walletHandler := handler.NewWalletHandler(walletService)
	voucherHandler := handler.NewVoucherHandler(voucherService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	webhookHandler := handler.NewWebhookHandler(callbackService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	commissionHandler := handler.NewCommissionHandler(commissionService)
	partnerHandler := handler.NewPartnerHandler(recalculationService)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing/Metrics - OpenTelemetry instrumentation (if enabled)
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.App.Name,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("bridgecart/http"), true))
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Payment gateway webhook endpoint (no authentication required).
	// The gateway authenticates itself via the HMAC signature header.
	webhookGroup := engine.Group("/api/v1/webhooks")
	webhookGroup.POST("/payments", webhookHandler.HandlePaymentWebhook)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// Configure skip paths for public endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/webhooks",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Wallet domain (customer balances and statements)
	walletRoutes := router.NewDomainGroup("wallet", "/wallets")
	walletRoutes.POST("", walletHandler.Open)
	walletRoutes.POST("/credit", walletHandler.Credit)
	walletRoutes.POST("/debit", walletHandler.Debit)
	walletRoutes.GET("/:owner_id/balance", walletHandler.GetBalance)
	walletRoutes.GET("/:owner_id/statement", walletHandler.GetStatement)

	// Voucher domain (redemption codes)
	voucherRoutes := router.NewDomainGroup("voucher", "/vouchers")
	voucherRoutes.POST("/generate", voucherHandler.Generate)
	voucherRoutes.POST("/redeem", voucherHandler.Redeem)
	voucherRoutes.POST("/:code/disable", voucherHandler.Disable)
	voucherRoutes.GET("", voucherHandler.List)
	voucherRoutes.GET("/:code", voucherHandler.Get)

	// Payment domain (gateway payment records)
	paymentRoutes := router.NewDomainGroup("payment", "/payments")
	paymentRoutes.POST("", paymentHandler.Create)
	paymentRoutes.GET("", paymentHandler.List)
	paymentRoutes.POST("/:id/paid", paymentHandler.MarkPaid)
	paymentRoutes.POST("/:id/refund", paymentHandler.Refund)
	paymentRoutes.POST("/:id/verify", paymentHandler.VerifyStatus)
	paymentRoutes.PUT("/:id/proof", paymentHandler.UpdateProof)

	// Settlement domain (agent orders, code distribution, pickups)
	settlementRoutes := router.NewDomainGroup("settlement", "/settlement")
	settlementRoutes.POST("/agent-orders", settlementHandler.CreateAgentOrder)
	settlementRoutes.POST("/agent-orders/submit", settlementHandler.SubmitAgentOrder)
	settlementRoutes.POST("/agent-orders/batch-submit", settlementHandler.BatchSubmit)
	settlementRoutes.POST("/agent-orders/:id/payment", settlementHandler.MarkAgentPayment)
	settlementRoutes.POST("/distributions", settlementHandler.DistributeCodes)
	settlementRoutes.POST("/distributions/:id/sell", settlementHandler.SellCode)
	settlementRoutes.POST("/distributions/:id/return", settlementHandler.ReturnCode)
	settlementRoutes.POST("/orders/:id/pickup", settlementHandler.ConfirmPickup)

	// Commission domain
	commissionRoutes := router.NewDomainGroup("commission", "/commissions")
	commissionRoutes.POST("/:id/confirm", commissionHandler.Confirm)
	commissionRoutes.POST("/:id/pay", commissionHandler.MarkPaid)
	commissionRoutes.POST("/:id/cancel", commissionHandler.Cancel)
	commissionRoutes.GET("/:id", commissionHandler.Get)
	commissionRoutes.GET("", commissionHandler.List)
	commissionRoutes.GET("/beneficiaries/:beneficiary_id/summary", commissionHandler.SummarizeBeneficiary)

	// Partner counter recalculation (agents and pickup points)
	agentRoutes := router.NewDomainGroup("agent", "/agents")
	agentRoutes.POST("/:id/recalculate", partnerHandler.RecalculateAgent)

	pointRoutes := router.NewDomainGroup("point", "/points")
	pointRoutes.POST("/:id/recalculate", partnerHandler.RecalculatePoint)

	// System routes (info, ping, outbox administration)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/outbox/dead", outboxHandler.GetDeadLetterEntries)
	systemRoutes.GET("/outbox/stats", outboxHandler.GetStats)
	systemRoutes.GET("/outbox/:id", outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/:id/retry", outboxHandler.RetryDeadEntry)
	systemRoutes.POST("/outbox/dead/retry-all", outboxHandler.RetryAllDeadEntries)

	// Register all domain groups
	r.Register(walletRoutes).
		Register(voucherRoutes).
		Register(paymentRoutes).
		Register(settlementRoutes).
		Register(commissionRoutes).
		Register(agentRoutes).
		Register(pointRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
