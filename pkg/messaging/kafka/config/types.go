package config

import "time"

// Config is the Kafka section of the service configuration.
type Config struct {
	Brokers  string         `mapstructure:"brokers"`  // comma-separated broker list
	Consumer ConsumerConfig `mapstructure:"consumer"` // the event source
	Producer ProducerConfig `mapstructure:"producer"` // used for the dead letter topic
}

// ConsumerConfig describes the topic events are read from.
type ConsumerConfig struct {
	Name                    string        `mapstructure:"name"`
	Topic                   string        `mapstructure:"topic"`
	GroupID                 string        `mapstructure:"group-id"`
	AutoOffsetReset         string        `mapstructure:"auto-offset-reset"`         // "earliest" or "latest"
	Format                  string        `mapstructure:"format"`                    // message value encoding: "raw" or "avro"
	EnableDLQ               bool          `mapstructure:"enable-dlq"`                // send failed messages to DLQTopic
	DLQTopic                string        `mapstructure:"dlq-topic"`                 // defaults to "{topic}.dlq"
	ReadinessTimeoutSeconds int           `mapstructure:"readiness-timeout-seconds"` // 0 = no timeout, max 600
	FailOnTopicError        bool          `mapstructure:"fail-on-topic-error"`
	MaxRetryAttempts        int           `mapstructure:"max-retry-attempts"` // 1-100
	InitialBackoff          time.Duration `mapstructure:"initial-backoff"`    // 100ms-30s
	MaxBackoff              time.Duration `mapstructure:"max-backoff"`        // 1s-5m
	ProcessingTimeout       time.Duration `mapstructure:"processing-timeout"` // 1s-10m
	ChannelBufferSize       int           `mapstructure:"channel-buffer-size"`
}

// ProducerConfig configures the producer used for dead letters.
type ProducerConfig struct {
	ReadinessTimeoutSeconds int  `mapstructure:"readiness-timeout-seconds"` // 0 = no timeout, max 600
	FailOnBrokerError       bool `mapstructure:"fail-on-broker-error"`
}
