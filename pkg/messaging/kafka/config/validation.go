package config

import (
	"fmt"
	"strings"

	"github.com/Sokol111/eventsink/pkg/event"
)

func validateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Brokers) == "" {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	if err := validateConsumer(&cfg.Consumer); err != nil {
		return err
	}
	if cfg.Producer.ReadinessTimeoutSeconds > maxReadinessTimeout {
		return fmt.Errorf("producer readiness timeout cannot exceed %d seconds, got: %d",
			maxReadinessTimeout, cfg.Producer.ReadinessTimeoutSeconds)
	}
	return nil
}

func validateConsumer(c *ConsumerConfig) error {
	if strings.TrimSpace(c.Topic) == "" {
		return fmt.Errorf("consumer (%s): topic cannot be empty", c.Name)
	}
	if strings.TrimSpace(c.GroupID) == "" {
		return fmt.Errorf("consumer (%s): group id cannot be empty", c.Name)
	}
	if c.AutoOffsetReset != "earliest" && c.AutoOffsetReset != "latest" {
		return fmt.Errorf("consumer (%s): auto offset reset must be 'earliest' or 'latest', got: %s",
			c.Name, c.AutoOffsetReset)
	}
	if c.Format != event.FormatRaw && c.Format != event.FormatAvro {
		return fmt.Errorf("consumer (%s): format must be '%s' or '%s', got: %s",
			c.Name, event.FormatRaw, event.FormatAvro, c.Format)
	}
	if c.ReadinessTimeoutSeconds > maxReadinessTimeout {
		return fmt.Errorf("consumer (%s): readiness timeout cannot exceed %d seconds, got: %d",
			c.Name, maxReadinessTimeout, c.ReadinessTimeoutSeconds)
	}
	if c.MaxRetryAttempts < minMaxRetryAttempts || c.MaxRetryAttempts > maxMaxRetryAttempts {
		return fmt.Errorf("consumer (%s): max retry attempts must be between %d and %d, got: %d",
			c.Name, minMaxRetryAttempts, maxMaxRetryAttempts, c.MaxRetryAttempts)
	}
	if c.InitialBackoff < minInitialBackoff || c.InitialBackoff > maxInitialBackoff {
		return fmt.Errorf("consumer (%s): initial backoff must be between %v and %v, got: %v",
			c.Name, minInitialBackoff, maxInitialBackoff, c.InitialBackoff)
	}
	if c.MaxBackoff < minMaxBackoff || c.MaxBackoff > maxMaxBackoffDuration {
		return fmt.Errorf("consumer (%s): max backoff must be between %v and %v, got: %v",
			c.Name, minMaxBackoff, maxMaxBackoffDuration, c.MaxBackoff)
	}
	if c.InitialBackoff > c.MaxBackoff {
		return fmt.Errorf("consumer (%s): initial backoff (%v) cannot be greater than max backoff (%v)",
			c.Name, c.InitialBackoff, c.MaxBackoff)
	}
	if c.ProcessingTimeout < minProcessingTimeout || c.ProcessingTimeout > maxProcessingTimeout {
		return fmt.Errorf("consumer (%s): processing timeout must be between %v and %v, got: %v",
			c.Name, minProcessingTimeout, maxProcessingTimeout, c.ProcessingTimeout)
	}
	if c.ChannelBufferSize < minChannelBufferSize || c.ChannelBufferSize > maxChannelBufferSize {
		return fmt.Errorf("consumer (%s): channel buffer size must be between %d and %d, got: %d",
			c.Name, minChannelBufferSize, maxChannelBufferSize, c.ChannelBufferSize)
	}
	if c.EnableDLQ && c.DLQTopic == c.Topic {
		return fmt.Errorf("consumer (%s): DLQ topic cannot be the same as main topic", c.Name)
	}
	return nil
}
