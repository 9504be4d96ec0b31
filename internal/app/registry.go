package app

import (
	"database/sql"
	"net/http"

	"people-desk/internal/approval"
	"people-desk/internal/auth"
	"people-desk/internal/config"
	"people-desk/internal/messaging/kafka"
	"people-desk/internal/middleware"
	"people-desk/internal/rbac"
	"people-desk/internal/rbac/infra"
	"people-desk/internal/shared/counter"
	"people-desk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	cfg config.Config,
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()
	loc := cfg.Location()

	// --- Repositories ---
	authRepo := auth.NewRepository(gormDB)
	approvalRepo := approval.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer, rbac.DefaultPolicy)
	if err != nil {
		return err
	}

	// --- Services & Handlers ---
	authService := auth.NewService(authRepo, rbacService, cfg.Auth, cfg.Seed)
	authHandler := auth.NewHandler(authService, cfg.App.IsProduction())

	router.Use(middleware.ContextLogger(logger))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	router.GET("/", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"service": "people-desk", "status": "ok"}, nil)
	})

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	auth.RegisterRoutes(api, authHandler, cfg.Auth.JWTSecret)

	for _, kind := range []approval.Kind{approval.KindLeave, approval.KindPermission} {
		service := approval.NewServiceWithDeps(db, approvalRepo, approval.Deps{
			Counter: counterRepo,
			Outbox:  outboxRepo,
			Redis:   rdb,
		}, approval.Options{
			AllowRedecision: cfg.Approval.AllowRedecision,
			Location:        loc,
			ReportCacheTTL:  cfg.Approval.ReportCacheTTL,
		})
		handler := approval.NewHandlerWithRedis(kind, service, loc, rdb)
		approval.RegisterRoutes(api, handler, rbacService, cfg.Auth.JWTSecret, rdb)
	}

	logger.Info("modules registered",
		zap.String("timezone", loc.String()),
		zap.Bool("allow_redecision", cfg.Approval.AllowRedecision),
	)
	return nil
}
