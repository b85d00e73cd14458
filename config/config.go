package config

import "time"

type Config struct {
	AppName    string `env:"APP_NAME" env-default:"clover"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs bool   `env:"PRETTY_LOGS" env-default:"false"`

	// Matching thresholds. Insert-time favors recall (catch likely duplicates
	// early), merge-time favors precision (merging is near-irreversible).
	InsertMatchThreshold float64 `env:"INSERT_MATCH_THRESHOLD" env-default:"0.80"`
	AutoMergeThreshold   float64 `env:"AUTO_MERGE_THRESHOLD" env-default:"0.92"`
	MaxCandidates        int     `env:"MAX_CANDIDATES" env-default:"100"`

	// Blocking index. Name buckets above MaxBucketSize sub-bucket by leading
	// token pair to keep per-lookup cost sub-linear.
	MaxBucketSize int `env:"MAX_BUCKET_SIZE" env-default:"500"`

	// Snapshot retention: whether tombstones that still redirect to a merge
	// winner are included in snapshots.
	SnapshotKeepRedirects bool `env:"SNAPSHOT_KEEP_REDIRECTS" env-default:"true"`

	// Kafka Consumer (candidate lead intake)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" env-default:"candidate-leads"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"clover-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"true"`

	// Kafka Producer (lead lifecycle events)
	KafkaOutputTopic  string        `env:"KAFKA_OUTPUT_TOPIC" env-default:"lead-events"`
	KafkaBatchSize    int           `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout time.Duration `env:"KAFKA_BATCH_TIMEOUT" env-default:"100ms"`
	KafkaRequiredAcks int           `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string        `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Processing
	NamespaceQueueSize int `env:"NAMESPACE_QUEUE_SIZE" env-default:"256"`
}
