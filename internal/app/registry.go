package app

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"go-presence/internal/attendance"
	"go-presence/internal/event"
	"go-presence/internal/messaging/kafka"
	"go-presence/internal/middleware"
	"go-presence/internal/rbac"
	"go-presence/internal/rbac/infra"
	"go-presence/internal/session"
	"go-presence/internal/stats"
	"go-presence/internal/sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(zap.L()),
		middleware.RateLimitByIP(rate.Limit(50), 100),
	)

	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	eventRepo := event.NewRepository(gormDB)
	sessionRepo := session.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	eventService := event.NewService(db, eventRepo)
	sessionService := session.NewService(db, sessionRepo, rdb)
	attendanceService := attendance.NewServiceWithOutbox(
		db,
		attendanceRepo,
		outboxRepo,
		durationEnv("CHECKIN_SKEW_TOLERANCE", attendance.DefaultSkewTolerance),
	)
	syncService := sync.NewService(attendanceService)
	statsService := stats.NewService(
		eventService,
		eventRepo,
		sessionService,
		attendanceService,
		rdb,
		durationEnv("STATS_CACHE_TTL", stats.DefaultCacheTTL),
	)

	// --- Handlers ---
	eventHandler := event.NewHandler(eventService)
	sessionHandler := session.NewHandler(sessionService)
	attendanceHandler := attendance.NewHandler(attendanceService)
	syncHandler := sync.NewHandler(syncService)
	statsHandler := stats.NewHandler(statsService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		event.RegisterRoutes(api, eventHandler, rbacService)
		session.RegisterRoutes(api, sessionHandler, rbacService)
		attendance.RegisterRoutes(api, attendanceHandler, rbacService, rdb)
		sync.RegisterRoutes(api, syncHandler, rbacService)
		stats.RegisterRoutes(api, statsHandler, rbacService)
	}

	return nil
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.L().Warn("invalid duration env, using default",
			zap.String("key", key),
			zap.String("value", v),
		)
		return fallback
	}
	return d
}
