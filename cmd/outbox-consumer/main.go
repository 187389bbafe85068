package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tradevault/platform/internal/domain"
	"github.com/tradevault/platform/internal/infra"
)

// Topics drained by the security alert consumer. Each event type is its own
// topic, so the consumer runs one reader per topic.
var alertTopics = []domain.EventType{
	domain.EventSessionBlocked,
	domain.EventAnomalyDetected,
	domain.EventPinWiped,
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED must be true for the outbox consumer")
	}

	logger.Info("security alert consumer starting", "brokers", cfg.KafkaBrokers, "topics", len(alertTopics))

	var wg sync.WaitGroup
	for _, topic := range alertTopics {
		consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, string(topic), "security-alerts", true, logger)

		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			defer consumer.Close()
			consume(ctx, consumer, topic, logger)
		}(string(topic))
	}

	wg.Wait()
	logger.Info("security alert consumer stopped")
	return nil
}

func consume(ctx context.Context, consumer *infra.KafkaConsumer, topic string, logger *slog.Logger) {
	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("read message failed", "topic", topic, "error", err)
			continue
		}

		// Alert sink: structured log today, pager integration later.
		logger.Warn("security event",
			"topic", topic,
			"key", string(msg.Key),
			"payload", string(msg.Value),
		)
	}
}
