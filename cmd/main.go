package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "gstinvoice/docs"
	"gstinvoice/internal/assets"
	"gstinvoice/internal/billing"
	"gstinvoice/internal/caching"
	"gstinvoice/internal/config"
	"gstinvoice/internal/handlers"
	"gstinvoice/internal/jobs"
	"gstinvoice/internal/middleware"
	"gstinvoice/internal/payments"
	"gstinvoice/internal/render"
	"gstinvoice/internal/repositories"
	"gstinvoice/internal/services"
	"gstinvoice/pkg/database"
)

const version = "1.0.0"

//	@title						GST Invoice API
//	@version					1.0
//	@description				Seller accounts, GST invoices and PDF rendering with UPI payment QR codes.
//	@BasePath					/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.URL, database.Options{
		MaxConns:    cfg.Database.MaxConns,
		ConnTimeout: cfg.Database.ConnTimeout.Duration,
	}, logger)
	if err != nil {
		return err
	}
	defer database.ClosePool(pool, logger)

	redisClient, err := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cacheSvc := caching.NewRedisCacheService(redisClient, logger)

	storage, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var sequences billing.SequenceAllocator
	switch cfg.Invoices.SequenceBackend {
	case config.SequenceMemory:
		logger.Warn("using in-memory invoice sequences; numbers restart with the process")
		sequences = billing.NewMemorySequenceAllocator()
	default:
		sequences = repositories.NewSequenceRepo(pool)
	}

	// Repositories
	sellerRepo := repositories.NewSellerRepo(pool)
	invoiceRepo := repositories.NewInvoiceRepo(pool)

	// Services
	authSvc := services.NewAuthService(sellerRepo, cacheSvc, services.AuthConfig{
		JWTSecret:        cfg.Auth.JWTSecret,
		AccessTokenTTL:   cfg.Auth.AccessTokenTTL.Duration,
		RefreshTokenTTL:  cfg.Auth.RefreshTokenTTL.Duration,
		LoginMaxAttempts: cfg.Auth.LoginMaxAttempts,
		LoginWindow:      cfg.Auth.LoginWindow.Duration,
	}, logger)
	sellerSvc := services.NewSellerService(sellerRepo, cacheSvc, cfg.Invoices.SellerCacheTTL.Duration, logger)
	invoiceSvc := services.NewInvoiceService(invoiceRepo, sellerSvc, sequences, cfg.Invoices.DefaultDueDays, logger)

	fetcher := assets.NewHTTPFetcher(nil, assets.Options{
		Timeout:  cfg.Assets.FetchTimeout.Duration,
		MaxBytes: cfg.Assets.MaxBytes,
		CacheTTL: cfg.Assets.CacheTTL.Duration,
	}, cacheSvc, logger)
	documentSvc := services.NewDocumentService(invoiceSvc, sellerSvc, fetcher,
		payments.NewQRBuilder(cfg.Invoices.QRSize), render.NewInvoiceRenderer(),
		storage, cfg.Minio.PresignTTL.Duration, logger)

	// Background jobs
	scheduler, err := jobs.NewJobScheduler(invoiceSvc, cfg.Invoices.OverdueInterval.Duration, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("scheduler shutdown failed", zap.Error(err))
		}
	}()

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	profileHandlers := handlers.NewProfileHandlers(sellerSvc)
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc, documentSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, storage, version, logger)

	e := newServer(cfg, logger)

	versionMiddleware := middleware.NewVersionMiddleware(version, "v1")
	e.Pre(versionMiddleware.APIVersionResolver())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := versionMiddleware.VersionRoute(e, "v1")
	audit := middleware.NewAuditMiddleware(logger)

	auth := v1.Group("/auth")
	auth.Use(audit.AuditRequest())
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(authSvc), audit.AuditRequest())

	protected.GET("/users/profile", profileHandlers.GetProfile)
	protected.PUT("/users/profile", profileHandlers.UpdateProfile)

	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.POST("/invoices", invoiceHandlers.CreateInvoice)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	protected.DELETE("/invoices/:id", invoiceHandlers.DeleteInvoice)
	protected.PUT("/invoices/:id/status", invoiceHandlers.UpdateInvoiceStatus)
	protected.GET("/invoices/:id/pdf", invoiceHandlers.DownloadInvoicePDF)
	protected.POST("/invoices/:id/archive", invoiceHandlers.ArchiveInvoicePDF)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gstinvoice server starting",
			zap.String("version", version),
			zap.Int("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment))
		if err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newStorage connects to MinIO. A missing bucket that cannot be created only
// disables archiving; PDFs are still streamed.
func newStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.MinioService, error) {
	storage, err := services.NewMinioService(services.MinioOptions{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		UseSSL:    cfg.Minio.UseSSL,
		Region:    cfg.Minio.Region,
		Bucket:    cfg.Minio.Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO service: %w", err)
	}

	bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := storage.EnsureBucketExists(bucketCtx); err != nil {
		logger.Warn("invoice archive disabled", zap.String("bucket", cfg.Minio.Bucket), zap.Error(err))
		return nil, nil
	}
	return storage, nil
}

func newServer(cfg *config.Config, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Error("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders: []string{echo.HeaderContentDisposition, "X-API-Version"},
	}))
	e.Use(echoMiddleware.ContextTimeout(cfg.Server.RequestTimeout.Duration))

	return e
}
