package config

func applyDefaults(cfg *Config) {
	applyConsumerDefaults(&cfg.Consumer)

	if cfg.Producer.ReadinessTimeoutSeconds == 0 {
		cfg.Producer.ReadinessTimeoutSeconds = defaultProducerReadinessTimeout
	}
}

func applyConsumerDefaults(c *ConsumerConfig) {
	if c.Name == "" {
		c.Name = defaultConsumerName
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = defaultAutoOffsetReset
	}
	if c.Format == "" {
		c.Format = defaultFormat
	}
	if c.EnableDLQ && c.DLQTopic == "" {
		c.DLQTopic = c.Topic + ".dlq"
	}
	if c.ReadinessTimeoutSeconds == 0 {
		c.ReadinessTimeoutSeconds = defaultConsumerReadinessTimeout
	}
	if c.MaxRetryAttempts == 0 {
		c.MaxRetryAttempts = defaultMaxRetryAttempts
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = defaultInitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = defaultMaxBackoff
	}
	if c.ProcessingTimeout == 0 {
		c.ProcessingTimeout = defaultProcessingTimeout
	}
	if c.ChannelBufferSize == 0 {
		c.ChannelBufferSize = defaultChannelBufferSize
	}
}
