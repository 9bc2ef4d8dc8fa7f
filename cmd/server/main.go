package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/tenancy/backend/internal/application/billing"
	leasingapp "github.com/tenancy/backend/internal/application/leasing"
	"github.com/tenancy/backend/internal/domain/leasing"
	"github.com/tenancy/backend/internal/infrastructure/audit"
	"github.com/tenancy/backend/internal/infrastructure/auth"
	"github.com/tenancy/backend/internal/infrastructure/config"
	"github.com/tenancy/backend/internal/infrastructure/event"
	"github.com/tenancy/backend/internal/infrastructure/logger"
	"github.com/tenancy/backend/internal/infrastructure/persistence"
	"github.com/tenancy/backend/internal/interfaces/http/handler"
	"github.com/tenancy/backend/internal/interfaces/http/middleware"
	"github.com/tenancy/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

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

	log.Info("Starting tenancy backend",
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

	// Initialize repositories
	leaseRepo := persistence.NewGormLeaseRepository(db.DB)
	assetRepo := persistence.NewGormPropertyAssetRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	creditNoteRepo := persistence.NewGormCreditNoteRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize event bus with the audit sink subscribed to every event
	eventBus := event.NewInMemoryEventBus(log)
	auditRecorder := audit.NewRecorder(db.DB, log)
	eventBus.Subscribe(auditRecorder)

	// Initialize application services
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, leaseRepo, txScope,
		billingapp.WithProrationPolicy(prorationPolicy(cfg.Billing.ProrationPolicy)),
		billingapp.WithDefaultDueDays(cfg.Billing.DefaultDueDays),
		billingapp.WithInvoiceEventPublisher(eventBus),
	)
	paymentService := billingapp.NewPaymentService(paymentRepo, invoiceRepo, txScope,
		billingapp.WithPaymentEventPublisher(eventBus),
	)
	creditNoteService := billingapp.NewCreditNoteService(creditNoteRepo, invoiceRepo, txScope,
		billingapp.WithCreditNoteEventPublisher(eventBus),
	)
	leaseService := leasingapp.NewLeaseService(leaseRepo,
		leasingapp.WithLeaseEventPublisher(eventBus),
	)
	ownershipService := leasingapp.NewOwnershipService(assetRepo,
		leasingapp.WithOwnershipEventPublisher(eventBus),
	)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	creditNoteHandler := handler.NewCreditNoteHandler(creditNoteService)
	leaseHandler := handler.NewLeaseHandler(leaseService)
	ownershipHandler := handler.NewOwnershipHandler(ownershipService)
	auditHandler := handler.NewAuditHandler(audit.NewQuery(db.DB))

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Liveness and readiness endpoints, outside API versioning and auth
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "time": time.Now().Format(time.RFC3339)})
	})
	engine.GET("/ready", readyHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		Logger:     log,
	}))

	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.POST("/invoices/generate", invoiceHandler.Generate)
	billingRoutes.GET("/invoices", invoiceHandler.List)
	billingRoutes.GET("/invoices/:id", invoiceHandler.Get)
	billingRoutes.POST("/invoices/:id/issue", invoiceHandler.Issue)
	billingRoutes.POST("/invoices/:id/void", invoiceHandler.Void)
	billingRoutes.POST("/invoices/:id/write-off", invoiceHandler.WriteOff)
	billingRoutes.POST("/invoices/:id/recompute", invoiceHandler.Recompute)
	billingRoutes.GET("/invoices/:id/payments", paymentHandler.ListByInvoice)
	billingRoutes.GET("/invoices/:id/credit-notes", creditNoteHandler.ListByInvoice)

	billingRoutes.POST("/payments", paymentHandler.Record)
	billingRoutes.GET("/payments/:id", paymentHandler.Get)
	billingRoutes.POST("/payments/:id/confirm", paymentHandler.Confirm)
	billingRoutes.POST("/payments/:id/reject", paymentHandler.Reject)

	billingRoutes.POST("/credit-notes", creditNoteHandler.Create)
	billingRoutes.GET("/credit-notes/:id", creditNoteHandler.Get)
	billingRoutes.POST("/credit-notes/:id/apply", creditNoteHandler.Apply)
	billingRoutes.POST("/credit-notes/:id/void", creditNoteHandler.Void)

	leasingRoutes := router.NewDomainGroup("leasing", "/leasing")
	leasingRoutes.POST("/leases", leaseHandler.Create)
	leasingRoutes.GET("/leases", leaseHandler.List)
	leasingRoutes.GET("/leases/:id", leaseHandler.Get)
	leasingRoutes.POST("/leases/:id/terms", leaseHandler.AddTerm)
	leasingRoutes.POST("/leases/:id/terminate", leaseHandler.Terminate)

	leasingRoutes.POST("/assets", ownershipHandler.RegisterAsset)
	leasingRoutes.PUT("/assets/:id/shares", ownershipHandler.SetShares)
	leasingRoutes.GET("/assets/:id/shares", ownershipHandler.ResolveShares)

	auditRoutes := router.NewDomainGroup("audit", "/audit")
	auditRoutes.GET("/aggregates/:id", auditHandler.ListByAggregate)

	r.Register(billingRoutes).
		Register(leasingRoutes).
		Register(auditRoutes)

	r.Setup()

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

// prorationPolicy maps the configured policy name to a domain policy.
// Unknown names disable proration so partial months bill in full.
func prorationPolicy(name string) leasing.ProrationPolicy {
	switch name {
	case "whole_day":
		return leasing.WholeDayProration{}
	case "thirty_day":
		return leasing.ThirtyDayProration{}
	default:
		return nil
	}
}

// readyHandler reports whether the service can reach its database.
func readyHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
