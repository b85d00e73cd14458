package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Producer publishes lead lifecycle events to Kafka. It implements
// events.Listener, so it can be subscribed straight onto the emitter.
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// HandleLeadEvent implements events.Listener by publishing the event.
func (p *Producer) HandleLeadEvent(ctx context.Context, event events.LeadEvent) error {
	return p.PublishLeadEvent(ctx, &event)
}

// PublishLeadEvent publishes a lead lifecycle event to Kafka, keyed by lead
// id so all events for a record land on the same partition in order.
func (p *Producer) PublishLeadEvent(ctx context.Context, event *events.LeadEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishLeadEvent")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.topic),
		attribute.String("messaging.operation", "publish"),
		attribute.String("event_type", string(event.EventType)),
		attribute.String("namespace", event.Namespace),
	)

	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.EventType), "marshal_error").Inc()
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.LeadID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "namespace", Value: []byte(event.Namespace)},
			{Key: "schema_version", Value: []byte(event.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.EventType), "error").Inc()
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish lead event")
		return err
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.EventType), "ok").Inc()
	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"namespace":  event.Namespace,
		"lead_id":    event.LeadID,
	}).Debug("Published lead event")

	return nil
}
