package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coding-cat0-0/tracker/internal/attendance"
	"github.com/coding-cat0-0/tracker/internal/employee"
	"github.com/coding-cat0-0/tracker/internal/events"
	"github.com/coding-cat0-0/tracker/internal/leave"
	"github.com/coding-cat0-0/tracker/internal/messaging/kafka/consumer"
	"github.com/coding-cat0-0/tracker/internal/shared/connection"
	"github.com/coding-cat0-0/tracker/internal/stats"

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

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	// The consumer recomputes stats directly; it never publishes, so no
	// outbox repo is wired in.
	aggregator := stats.NewAggregator(
		sqlDB,
		stats.NewRepository(gormDB),
		employee.NewRepository(gormDB),
		attendance.NewRepository(gormDB),
		leave.NewRepository(gormDB),
		nil,
	)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.SessionStoppedTopic,
		GroupID:        "tracker-stats-refresh",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeSessionLifecycle(ctx, reader, aggregator, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
