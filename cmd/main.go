package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pdf-delivery-service/internal/cache"
	"pdf-delivery-service/internal/config"
	"pdf-delivery-service/internal/events"
	"pdf-delivery-service/internal/handlers"
	"pdf-delivery-service/internal/mailer"
	"pdf-delivery-service/internal/middleware"
	"pdf-delivery-service/internal/models"
	"pdf-delivery-service/internal/providers/aws"
	"pdf-delivery-service/internal/providers/local"
	"pdf-delivery-service/internal/repository"
	"pdf-delivery-service/internal/services"
	"pdf-delivery-service/internal/shopify"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting PDF Delivery Service")

	db, err := connectDatabase(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	if err := runMigrations(db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	storage, err := createStorageProvider(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create storage provider")
	}

	var recordCache cache.Cache
	if cfg.Cache.Enabled {
		recordCache, err = cache.NewRedisCache(cache.RedisConfig{
			Host:     cfg.Cache.Host,
			Port:     cfg.Cache.Port,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			PoolSize: cfg.Cache.PoolSize,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis, continuing without cache")
			recordCache = cache.NewNoOpCache()
		}
	} else {
		logger.Info("Cache disabled by configuration")
		recordCache = cache.NewNoOpCache()
	}

	mail := createMailer(cfg, logger)

	publisher, err := events.NewPublisher(cfg.Events.NATSURL, logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize events publisher (events won't be published)")
	}
	defer publisher.Close()

	// Repositories
	pdfRepo := repository.NewProductPDFRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	// Services
	pdfService := services.NewPDFService(pdfRepo, storage, recordCache, publisher, cfg.Storage.Bucket, logger)
	tokenService := services.NewTokenService(tokenRepo, pdfRepo, recordCache, cfg.RecordCacheTTL(), logger)
	templateService := services.NewTemplateService(templateRepo, cfg.Email.SupportedLanguages, cfg.Email.DefaultLanguage, logger)
	orderEmailService := services.NewOrderEmailService(
		orderRepo, pdfRepo, tokenService, templateService,
		mail, publisher, cfg.DownloadURL, cfg.Email.From, logger,
	)

	registerWebhooks(cfg, logger)

	router := setupRouter(cfg, db, storage, pdfService, tokenService, templateService, orderEmailService, logger)
	server := &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.GetAddr()).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// setupLogger configures the application logger
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	switch cfg.Logging.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: cfg.Logging.TimeFormat,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: cfg.Logging.TimeFormat,
		})
	}

	logger.SetOutput(os.Stdout)
	return logger
}

// connectDatabase establishes the database connection
func connectDatabase(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	if cfg.IsDevelopment() {
		gormLogger = gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Info,
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		)
	}

	// TranslateError maps driver unique-violation errors to
	// gorm.ErrDuplicatedKey, which the template repository relies on.
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *gorm.DB, logger *logrus.Logger) error {
	logger.Info("Running database migrations")

	if err := db.AutoMigrate(
		&models.ProductPDF{},
		&models.Order{},
		&models.DownloadToken{},
		&models.EmailTemplate{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createStorageProvider creates the configured storage provider
func createStorageProvider(cfg *config.Config, logger *logrus.Logger) (models.StorageProvider, error) {
	switch cfg.Storage.Provider {
	case models.ProviderAWS:
		return aws.NewS3Provider(&cfg.Storage.AWS, logger)
	case models.ProviderLocal:
		logger.Info("Using local filesystem storage provider")
		return local.NewLocalProvider(&cfg.Storage.Local, logger)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
	}
}

// createMailer creates the configured email provider
func createMailer(cfg *config.Config, logger *logrus.Logger) mailer.Mailer {
	switch cfg.Email.Provider {
	case "sendgrid":
		if cfg.Email.SendGridAPIKey == "" {
			logger.Warn("SendGrid API key not set, emails will be discarded")
			return mailer.NewNoOpMailer()
		}
		return mailer.NewSendGridMailer(cfg.Email.SendGridAPIKey, cfg.Email.From, cfg.Email.FromName, logger)
	case "smtp":
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPUsername, cfg.Email.SMTPPassword,
			cfg.Email.From, cfg.Email.FromName, logger,
		)
	default:
		logger.WithField("provider", cfg.Email.Provider).Warn("Unknown email provider, emails will be discarded")
		return mailer.NewNoOpMailer()
	}
}

// registerWebhooks ensures the Shopify webhook subscriptions exist. A failure
// is logged but does not prevent startup; deliveries from an earlier
// registration still work.
func registerWebhooks(cfg *config.Config, logger *logrus.Logger) {
	if cfg.Shopify.AccessToken == "" || cfg.Shopify.Shop == "" {
		logger.Info("Shopify credentials not configured, skipping webhook registration")
		return
	}

	base := cfg.Shopify.WebhookBase
	if base == "" {
		base = cfg.App.PublicURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := shopify.NewClient(cfg.Shopify.Shop, cfg.Shopify.AccessToken, cfg.Shopify.APIVersion, logger)
	if err := client.EnsureWebhooks(ctx, base); err != nil {
		logger.WithError(err).Warn("Failed to ensure Shopify webhooks")
	}
}

// setupRouter configures the HTTP router
func setupRouter(
	cfg *config.Config,
	db *gorm.DB,
	storage models.StorageProvider,
	pdfService *services.PDFService,
	tokenService *services.TokenService,
	templateService *services.TemplateService,
	orderEmailService *services.OrderEmailService,
	logger *logrus.Logger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())

	pdfHandler := handlers.NewPDFHandler(pdfService, cfg.Storage.MaxFileSize, logger)
	templateHandler := handlers.NewTemplateHandler(templateService, logger)
	downloadHandler := handlers.NewDownloadHandler(tokenService, logger)
	webhookHandler := handlers.NewWebhookHandler(orderEmailService, logger)
	healthHandler := handlers.NewHealthHandler(db, storage, version)

	health := router.Group("/health")
	{
		health.GET("", healthHandler.Health)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/live", healthHandler.Live)
	}

	// Webhook deliveries come straight from Shopify.
	webhooks := router.Group("/api/webhooks")
	{
		webhooks.POST("/orders/create", webhookHandler.OrderCreated)
		webhooks.POST("/app/uninstalled", webhookHandler.AppUninstalled)
	}

	// Public token endpoints, reached from checkout and storefront surfaces.
	download := router.Group("/api/download")
	download.Use(middleware.OpenCORS())
	{
		download.OPTIONS("", noContent)
		download.OPTIONS("/:token", noContent)
		download.POST("", downloadHandler.Issue)
		download.GET("/:token", downloadHandler.Redeem)
	}

	// Admin endpoints for the embedded app.
	admin := router.Group("/api")
	if cfg.Security.EnableCORS {
		admin.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	}
	admin.Use(middleware.AdminAuth(cfg.Security.AdminAPIKey, cfg.Security.EnableAuth))
	{
		pdfs := admin.Group("/product-pdfs")
		{
			pdfs.POST("/upload", pdfHandler.Upload)
			pdfs.PUT("/:id/update", pdfHandler.Update)
			pdfs.DELETE("/delete", pdfHandler.Delete)
			pdfs.GET("", pdfHandler.Details)
			pdfs.GET("/details", pdfHandler.Details)
			pdfs.POST("/check", pdfHandler.Check)
			pdfs.POST("/get", pdfHandler.Get)
			pdfs.GET("/variants", pdfHandler.Variants)
		}

		templates := admin.Group("/templates")
		{
			templates.GET("", templateHandler.List)
			templates.POST("", templateHandler.Save)
			templates.POST("/create", templateHandler.Create)
			templates.GET("/one", templateHandler.Get)
			templates.PUT("/one", templateHandler.Upsert)
			templates.DELETE("/one", templateHandler.Delete)
		}
	}

	return router
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
