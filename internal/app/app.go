package app

import (
	"database/sql"
	"fmt"

	"people-desk/internal/approval"
	"people-desk/internal/auth"
	"people-desk/internal/config"
	"people-desk/internal/messaging/kafka"
	"people-desk/internal/shared/connection"
	"people-desk/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BuildApp connects the stores, applies the schema and mounts every module on router.
func BuildApp(cfg config.Config, router *gin.Engine) error {
	logger := zap.L().Named("app")

	gormDB, sqlDB, err := openSQL(cfg)
	if err != nil {
		return err
	}
	logger.Info("database connection established")

	if err := migrate(gormDB); err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Database.MaxRetries)
		if err != nil {
			return err
		}
		logger.Info("redis connection established")
	} else {
		logger.Warn("REDIS_ADDR not set, report cache and idempotency disabled")
	}

	return registerModules(cfg, router, sqlDB, gormDB, rdb)
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&auth.User{}, &approval.Request{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, ddl := range []string{kafka.Schema, counter.Schema} {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func openSQL(cfg config.Config) (*gorm.DB, *sql.DB, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}
	return gormDB, sqlDB, nil
}
