package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/processor"
	"github.com/Ramsey-B/clover/pkg/resolution"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger := newZapLogger(cfg)
	defer zapLogger.Sync() //nolint:errcheck
	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		zapLogger.Info("clover", zap.Any("entry", msg))
	})

	// Spans go through the global provider; deployments that install an otel
	// SDK get real export, everyone else gets no-ops.
	tracing.SetTracer(otel.Tracer(cfg.AppName))

	ctx := context.Background()

	emitter := events.NewEmitter(logger)
	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: cfg.KafkaBatchTimeout,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close() //nolint:errcheck
	emitter.Subscribe(producer)

	registry := resolution.NewRegistry(logger, resolution.Config{
		InsertMatchThreshold:  cfg.InsertMatchThreshold,
		AutoMergeThreshold:    cfg.AutoMergeThreshold,
		MaxCandidates:         cfg.MaxCandidates,
		MaxBucketSize:         cfg.MaxBucketSize,
		SnapshotKeepRedirects: cfg.SnapshotKeepRedirects,
	}, emitter)

	proc := processor.NewProcessor(logger, registry, cfg.NamespaceQueueSize)

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		consumer = kafka.NewConsumer(cfg, logger, proc.HandleMessage)
		if err := consumer.Start(ctx); err != nil {
			logger.WithContext(ctx).WithError(err).Error("Failed to start consumer")
			os.Exit(1)
		}
	}

	logger.WithContext(ctx).WithFields(map[string]any{
		"app":   cfg.AppName,
		"topic": cfg.KafkaInputTopic,
	}).Info("Clover started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.WithContext(ctx).Info("Shutting down")
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithContext(ctx).WithError(err).Error("Failed to stop consumer cleanly")
		}
	}
	proc.Stop()
	logger.WithContext(ctx).Info("Clover stopped")
}

func newZapLogger(cfg config.Config) *zap.Logger {
	if cfg.PrettyLogs {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
