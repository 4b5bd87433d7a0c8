package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luis-polezi/stock-control/internal/archive"
	"github.com/luis-polezi/stock-control/internal/auth"
	"github.com/luis-polezi/stock-control/internal/config"
	"github.com/luis-polezi/stock-control/internal/handler"
	"github.com/luis-polezi/stock-control/internal/metrics"
	"github.com/luis-polezi/stock-control/internal/middleware"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/luis-polezi/stock-control/internal/repository"
	"github.com/luis-polezi/stock-control/internal/service"
	"github.com/redis/go-redis/v9"
)

// Deps are the infrastructure pieces built by main.
type Deps struct {
	State   repository.KVStore
	Archive *archive.Service
	Queue   service.BackupQueue // nil writes automatic backups synchronously
	Gate    *auth.Gate
	Redis   *redis.Client // nil when no Redis is configured
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository/Archive ← KV/Bucket/Redis
func New(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Services ─────────────────────────────────────────────────────────────
	syncSvc := service.NewSyncService(ctx, repository.NewLedgerRepository(deps.State))
	backupSvc := service.NewBackupService(deps.Archive, deps.Queue)
	authSvc := service.NewAuthService(deps.Gate, cfg)

	// ── Handlers ─────────────────────────────────────────────────────────────
	syncH := handler.NewSyncHandler(syncSvc)
	backupH := handler.NewBackupHandler(backupSvc)
	authH := handler.NewAuthHandler(authSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/metrics", metrics.Handler())
	r.GET("/api/health", handler.Health(deps.Redis))
	r.POST("/api/login", middleware.LoginRateLimiter(), authH.Login)

	// Protected when AUTH_ENABLED; RequireRole is a no-op without a token check
	api := r.Group("/api")
	if cfg.AuthEnabled {
		api.Use(middleware.JWTAuth(cfg.JWTSecret))
	}
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleViewer)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	{
		api.GET("/data", anyRole, syncH.Data)
		api.GET("/export/pdf", anyRole, syncH.BalancePDF)
		api.GET("/latest-backup", anyRole, backupH.Latest)
		api.GET("/backups", anyRole, backupH.List)
		api.GET("/backup/:fileName", anyRole, backupH.Download)

		api.POST("/sync", adminOnly, syncH.Sync)
		api.POST("/backup", adminOnly, backupH.Create)
		api.DELETE("/backup/:fileName", adminOnly, backupH.Delete)
	}

	return r
}
