package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/api"
	"github.com/careapp/carecoord/internal/app"
	"github.com/careapp/carecoord/internal/app/maintenance"
	iauth "github.com/careapp/carecoord/internal/auth"
	"github.com/careapp/carecoord/internal/cache"
	"github.com/careapp/carecoord/internal/database"
	"github.com/careapp/carecoord/internal/middleware"
	"github.com/careapp/carecoord/internal/storage"
	"github.com/careapp/carecoord/pkg/logger"
	"github.com/careapp/carecoord/pkg/mail"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *cache.RedisStore
	Cache     *cache.DatabaseStore
	RateStore middleware.RateStore
	Services  *api.Services
	Runner    *maintenance.Runner
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, caches, services, background jobs and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Cache = cache.NewDatabaseStore(stack.DB)

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed rate limiting", zap.Error(err))
			stack.Redis = nil
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	switch {
	case stack.Redis != nil:
		stack.RateStore = middleware.NewCacheRateStore(stack.Redis)
	default:
		stack.RateStore = middleware.NewCacheRateStore(stack.Cache)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	photos, err := storage.NewFilesystemPhotoStore(cfg.Storage.UploadDir, cfg.Storage.PublicPath)
	if err != nil {
		return nil, fmt.Errorf("initialise photo store: %w", err)
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise mailer: %w", err)
	}

	stack.Services, err = api.NewServices(stack.DB, cfg, mailer, nil)
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	stack.Runner = maintenance.NewRunner(stack.Services.Recurring, stack.Services.Invites, stack.Cache,
		maintenance.WithRecurringSchedule(cfg.Maintenance.RecurringSchedule),
		maintenance.WithInviteSchedule(cfg.Maintenance.InviteCleanupSchedule),
		maintenance.WithCacheSchedule(cfg.Maintenance.CacheCleanupSchedule),
		maintenance.WithNotificationCleaner(stack.Services.Notifications),
		maintenance.WithNotificationSchedule(cfg.Maintenance.NotificationSchedule),
	)
	if err := stack.Runner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:        stack.DB,
		JWT:       jwtSvc,
		Config:    cfg,
		RateStore: stack.RateStore,
		Photos:    photos,
		Mailer:    mailer,
		Services:  stack.Services,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Runner != nil {
		<-s.Runner.Stop().Done()
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
		s.Redis = nil
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
		s.DB = nil
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.MigrateSchema(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected", zap.String("driver", dbCfg.Driver))
	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
