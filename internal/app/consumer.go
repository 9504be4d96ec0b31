package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"people-desk/internal/bootstrap"
	"people-desk/internal/config"
	"people-desk/internal/events"
	"people-desk/internal/messaging/kafka/consumer"
	"people-desk/internal/shared/connection"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer audits approval lifecycle events until SIGINT or SIGTERM.
func RunConsumer(cfg config.Config) error {
	logger := zap.L().Named("app.consumer")

	if cfg.Kafka.Broker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		var err error
		rdb, err = connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Database.MaxRetries)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.Kafka.Broker},
		Topic:          events.ApprovalLifecycleTopic,
		GroupID:        "people-desk-approval-audit",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	handler := consumer.NewLifecycleHandler(bootstrap.NewStdoutAuditLogger(), rdb, cfg.Location())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeApprovalLifecycle(ctx, reader, handler, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
