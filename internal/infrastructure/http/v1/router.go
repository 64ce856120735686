// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"grootboek/internal/domain/journal"
	"grootboek/internal/domain/period"
	"grootboek/internal/domain/reference/account"
	"grootboek/internal/domain/reference/vatcode"
	"grootboek/internal/domain/snapshot"
	"grootboek/internal/domain/vatbox"
	"grootboek/internal/infrastructure/http/v1/handlers"
	"grootboek/internal/infrastructure/http/v1/middleware"
	"grootboek/internal/infrastructure/storage/postgres"
	"grootboek/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (health checks).
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator

	AccountService  *account.Service
	VatCodeService  *vatcode.Service
	JournalService  *journal.Service
	PeriodService   *period.Service
	VatBoxIndexer   *vatbox.Indexer
	SnapshotBuilder *snapshot.Builder
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1 - all ledger endpoints require an authenticated user and a tenant.
	v1 := router.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	protected.Use(middleware.Tenant())

	base := handlers.NewBaseHandler()

	registerReferenceRoutes(protected, base, cfg)
	registerJournalRoutes(protected, base, cfg)
	registerPeriodRoutes(protected, base, cfg)

	return router
}

// registerReferenceRoutes registers chart-of-accounts and VAT catalog endpoints.
func registerReferenceRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	accountHandler := handlers.NewAccountHandler(base, cfg.AccountService)
	accounts := rg.Group("/accounts")
	{
		accounts.POST("", accountHandler.Create)
		accounts.GET("", accountHandler.List)
		accounts.GET("/:id", accountHandler.Get)
		accounts.PUT("/:id", accountHandler.Update)
		accounts.GET("/by-code/:code", accountHandler.GetByCode)
	}

	vatCodeHandler := handlers.NewVatCodeHandler(base, cfg.VatCodeService)
	vatCodes := rg.Group("/vat-codes")
	{
		vatCodes.POST("", vatCodeHandler.Create)
		vatCodes.GET("", vatCodeHandler.List)
		vatCodes.GET("/:id", vatCodeHandler.Get)
		vatCodes.PUT("/:id", vatCodeHandler.Update)
	}
}

// registerJournalRoutes registers journal entry endpoints.
func registerJournalRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	journalHandler := handlers.NewJournalHandler(base, cfg.JournalService)
	entries := rg.Group("/journal-entries")
	{
		entries.POST("", journalHandler.CreateDraft)
		entries.GET("", journalHandler.List)
		entries.GET("/:id", journalHandler.Get)
		entries.PUT("/:id", journalHandler.UpdateDraft)
		entries.POST("/:id/post", journalHandler.Post)
		entries.POST("/:id/reverse", journalHandler.Reverse)
	}
}

// registerPeriodRoutes registers period control, VAT box and snapshot endpoints.
func registerPeriodRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	periodHandler := handlers.NewPeriodHandler(base, cfg.PeriodService)
	vatBoxHandler := handlers.NewVatBoxHandler(base, cfg.VatBoxIndexer)
	snapshotHandler := handlers.NewSnapshotHandler(base, cfg.SnapshotBuilder)

	periods := rg.Group("/periods")
	{
		periods.POST("", periodHandler.Create)
		periods.GET("", periodHandler.List)
		periods.GET("/can-accept-postings", periodHandler.CanAcceptPostings)
		periods.GET("/:id", periodHandler.Get)
		periods.GET("/:id/history", periodHandler.History)
		periods.POST("/:id/start-review", periodHandler.StartReview)
		periods.POST("/:id/finalize", periodHandler.Finalize)
		periods.POST("/:id/lock", periodHandler.Lock)

		periods.GET("/:id/vat-boxes", vatBoxHandler.Totals)
		periods.GET("/:id/vat-boxes/:box/lines", vatBoxHandler.Lines)
		periods.POST("/:id/vat-boxes/rebuild", vatBoxHandler.Rebuild)

		periods.GET("/:id/snapshot", snapshotHandler.GetByPeriod)
	}

	snapshots := rg.Group("/snapshots")
	{
		snapshots.GET("/:id", snapshotHandler.Get)
	}
}
