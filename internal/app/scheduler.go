package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coding-cat0-0/tracker/internal/attendance"
	"github.com/coding-cat0-0/tracker/internal/employee"
	"github.com/coding-cat0-0/tracker/internal/leave"
	"github.com/coding-cat0-0/tracker/internal/messaging/kafka"
	"github.com/coding-cat0-0/tracker/internal/messaging/kafka/producer"
	"github.com/coding-cat0-0/tracker/internal/shared/connection"
	"github.com/coding-cat0-0/tracker/internal/stats"

	"go.uber.org/zap"
)

const (
	dailyRunInterval  = time.Hour
	weeklyRunInterval = 24 * time.Hour
)

// RunScheduler hosts the periodic aggregation runs and the outbox producer
// in one worker process. The hourly tick recomputes today's DailyStats for
// every employee; the daily tick rolls the weekly summaries.
func RunScheduler() error {
	logger := zap.L().Named("app.scheduler")

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

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	aggregator := stats.NewAggregator(
		sqlDB,
		stats.NewRepository(gormDB),
		employee.NewRepository(gormDB),
		attendance.NewRepository(gormDB),
		leave.NewRepository(gormDB),
		outboxRepo,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)

	go runAggregationLoop(ctx, aggregator, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("scheduler shutting down")
	cancel()

	return nil
}

func runAggregationLoop(ctx context.Context, aggregator *stats.Aggregator, logger *zap.Logger) {
	today := func() time.Time {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}

	// First runs happen immediately so a fresh deployment does not serve
	// empty dashboards until the tickers fire.
	if _, err := aggregator.RunDaily(ctx, today()); err != nil {
		logger.Error("initial daily stats run failed", zap.Error(err))
	}
	if _, err := aggregator.RunWeekly(ctx, today()); err != nil {
		logger.Error("initial weekly stats run failed", zap.Error(err))
	}

	dailyTicker := time.NewTicker(dailyRunInterval)
	defer dailyTicker.Stop()
	weeklyTicker := time.NewTicker(weeklyRunInterval)
	defer weeklyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dailyTicker.C:
			if _, err := aggregator.RunDaily(ctx, today()); err != nil {
				logger.Error("daily stats run failed", zap.Error(err))
			}
		case <-weeklyTicker.C:
			if _, err := aggregator.RunWeekly(ctx, today()); err != nil {
				logger.Error("weekly stats run failed", zap.Error(err))
			}
		}
	}
}
