package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"rentledger/internal/caching"
	"rentledger/internal/common"
	"rentledger/internal/handlers"
	"rentledger/internal/jobs/background"
	"rentledger/internal/middleware"
	"rentledger/internal/repositories"
	"rentledger/internal/services"
	"rentledger/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}
	tokenTTL := envInt("TOKEN_TTL_SECONDS", 900)
	refreshTTL := envInt("REFRESH_TTL_SECONDS", 7*24*3600)

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := envInt("REDIS_DB", 0)

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"
	documentBucket := os.Getenv("DOCUMENT_BUCKET")
	if documentBucket == "" {
		documentBucket = "tenant-documents"
	}

	// Checkout provider configuration
	checkoutAPIKey := os.Getenv("CHECKOUT_API_KEY")
	checkoutWebhookSecret := os.Getenv("CHECKOUT_WEBHOOK_SECRET")
	checkoutBaseURL := os.Getenv("CHECKOUT_BASE_URL")
	if checkoutBaseURL == "" {
		checkoutBaseURL = "https://api.checkout.example.com/v1"
	}
	checkoutSuccessURL := os.Getenv("CHECKOUT_SUCCESS_URL")
	checkoutCancelURL := os.Getenv("CHECKOUT_CANCEL_URL")

	// Storage service
	storageSvc, err := services.NewStorageService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	chargeRepo := repositories.NewChargeRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	documentRepo := repositories.NewDocumentRepo(pool)
	onboardingRepo := repositories.NewOnboardingRepo(pool)
	maintenanceRepo := repositories.NewMaintenanceRepo(pool)
	auditLogsRepo := repositories.NewAuditLogsRepo(pool)

	// Cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Services
	authSvc := services.NewAuthService(userRepo, cacheSvc, jwtSecret, tokenTTL, refreshTTL)
	ledgerSvc := services.NewLedgerService(chargeRepo, paymentRepo, tenantRepo, cacheSvc)
	documentSvc := services.NewDocumentService(documentRepo, storageSvc, documentBucket)
	tenantSvc := services.NewTenantService(tenantRepo, userRepo, chargeRepo, paymentRepo, documentSvc, onboardingRepo, maintenanceRepo, ledgerSvc, cacheSvc)
	onboardingSvc := services.NewOnboardingService(onboardingRepo, tenantRepo, documentSvc)
	maintenanceSvc := services.NewMaintenanceService(maintenanceRepo)
	auditSvc := services.NewAuditLogsService(auditLogsRepo)
	statementSvc := services.NewStatementService(tenantSvc, ledgerSvc)
	checkoutSvc := services.NewCheckoutService(checkoutAPIKey, checkoutWebhookSecret, checkoutBaseURL, checkoutSuccessURL, checkoutCancelURL)

	// Background jobs
	jobScheduler := background.NewJobScheduler(ledgerSvc, tenantRepo, chargeRepo)
	if err := jobScheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer jobScheduler.Stop()

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc, auditSvc)
	ledgerHandlers := handlers.NewLedgerHandlers(ledgerSvc, statementSvc, checkoutSvc, auditSvc)
	webhookHandlers := handlers.NewWebhookHandlers(checkoutSvc, ledgerSvc)
	documentHandlers := handlers.NewDocumentHandlers(documentSvc)
	onboardingHandlers := handlers.NewOnboardingHandlers(onboardingSvc)
	maintenanceHandlers := handlers.NewMaintenanceHandlers(maintenanceSvc)
	auditHandlers := handlers.NewAuditLogsHandlers(auditSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, jobScheduler)

	// Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	versionMiddleware := middleware.NewVersionMiddleware()
	auditMiddleware := middleware.NewAuditMiddleware(auditSvc)

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	// API routes
	v1 := e.Group("/v1")
	v1.Use(versionMiddleware.VersionHeader("v1"))

	// Authentication routes (no JWT required)
	auth := v1.Group("/auth")
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/logout", authHandlers.Logout)

	// Provider webhooks (signature-verified, no JWT)
	v1.POST("/webhooks/payments", webhookHandlers.PaymentWebhook)

	// Protected routes
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret)))
	protected.Use(middleware.ClaimsToContext())
	protected.Use(auditMiddleware.AuditRequest())

	protected.GET("/me", tenantHandlers.Me)

	// Owner routes
	owner := protected.Group("")
	owner.Use(middleware.RequireRole(common.RoleOwner))

	owner.POST("/tenants", tenantHandlers.Provision)
	owner.GET("/tenants", tenantHandlers.List)
	owner.GET("/tenants/summaries", tenantHandlers.Summaries)
	owner.GET("/tenants/:id", tenantHandlers.Get)
	owner.PUT("/tenants/:id", tenantHandlers.Update)
	owner.DELETE("/tenants/:id", tenantHandlers.Delete)

	owner.POST("/tenants/:id/charges", ledgerHandlers.AddCharge)
	owner.GET("/tenants/:id/charges", ledgerHandlers.ListCharges)
	owner.POST("/tenants/:id/charges/:chargeID/mark-paid", ledgerHandlers.MarkChargePaid)
	owner.POST("/tenants/:id/payments", ledgerHandlers.RecordPayment)
	owner.GET("/tenants/:id/payments", ledgerHandlers.ListPayments)
	owner.GET("/tenants/:id/balance", ledgerHandlers.Balance)
	owner.GET("/tenants/:id/ledger", ledgerHandlers.Ledger)
	owner.GET("/tenants/:id/statement", ledgerHandlers.Statement)

	owner.POST("/tenants/:id/documents", documentHandlers.Upload)
	owner.GET("/tenants/:id/documents", documentHandlers.List)
	owner.DELETE("/tenants/:id/documents/:docID", documentHandlers.Delete)

	owner.GET("/tenants/:id/onboarding", onboardingHandlers.Checklist)
	owner.POST("/tenants/:id/onboarding/:stepID/review", onboardingHandlers.ReviewStep)

	owner.GET("/tenants/:id/maintenance", maintenanceHandlers.ListForTenant)
	owner.GET("/maintenance", maintenanceHandlers.ListByStatus)
	owner.PUT("/maintenance/:id/status", maintenanceHandlers.UpdateStatus)

	owner.GET("/audit-logs", auditHandlers.List)

	// Tenant portal routes
	portal := protected.Group("/portal")
	portal.Use(middleware.RequireRole(common.RoleTenant))

	portal.GET("/ledger", ledgerHandlers.MyLedger)
	portal.GET("/balance", ledgerHandlers.MyBalance)
	portal.GET("/statement", ledgerHandlers.MyStatement)
	portal.POST("/payments", ledgerHandlers.MyRecordPayment)
	portal.POST("/checkout", ledgerHandlers.CreateCheckoutSession)
	portal.GET("/documents", documentHandlers.List)
	portal.POST("/documents", documentHandlers.Upload)
	portal.GET("/onboarding", onboardingHandlers.MyChecklist)
	portal.POST("/onboarding/:stepID/submit", onboardingHandlers.SubmitStep)
	portal.GET("/maintenance", maintenanceHandlers.ListMine)
	portal.POST("/maintenance", maintenanceHandlers.Create)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("rentledger server v%s starting on port %d", version, port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
