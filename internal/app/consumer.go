package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-presence/internal/attendance"
	"go-presence/internal/event"
	"go-presence/internal/events"
	"go-presence/internal/messaging/kafka/consumer"
	"go-presence/internal/session"
	"go-presence/internal/shared/connection"
	"go-presence/internal/stats"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	eventRepo := event.NewRepository(gormDB)
	sessionRepo := session.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)

	eventService := event.NewService(sqlDB, eventRepo)
	sessionService := session.NewService(sqlDB, sessionRepo, redisClient)
	attendanceService := attendance.NewService(sqlDB, attendanceRepo, attendance.DefaultSkewTolerance)

	statsService := stats.NewService(
		eventService,
		eventRepo,
		sessionService,
		attendanceService,
		redisClient,
		durationEnv("STATS_CACHE_TTL", stats.DefaultCacheTTL),
	)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.AttendanceLifecycleTopic,
		GroupID:        "go-presence-stats",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeAttendanceLifecycle(ctx, reader, statsService, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
