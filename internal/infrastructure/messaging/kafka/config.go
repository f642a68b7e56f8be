// Package kafka carries analysis events and queued analysis requests over
// Apache Kafka using segmentio/kafka-go.
package kafka

import (
	"time"

	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

// Config is the kafka section of the service configuration.
type Config struct {
	Brokers           []string      `mapstructure:"brokers" yaml:"brokers"`
	GroupID           string        `mapstructure:"group_id" yaml:"group_id"`
	AutoOffsetReset   string        `mapstructure:"auto_offset_reset" yaml:"auto_offset_reset"`
	RequestedTopic    string        `mapstructure:"requested_topic" yaml:"requested_topic"`
	CompletedTopic    string        `mapstructure:"completed_topic" yaml:"completed_topic"`
	DeadLetterTopic   string        `mapstructure:"dead_letter_topic" yaml:"dead_letter_topic"`
	Acks              string        `mapstructure:"acks" yaml:"acks"`
	CompressionCodec  string        `mapstructure:"compression" yaml:"compression"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	MaxRetryBackoff   time.Duration `mapstructure:"max_retry_backoff" yaml:"max_retry_backoff"`
	SASLEnabled       bool          `mapstructure:"sasl_enabled" yaml:"sasl_enabled"`
	SASLMechanism     string        `mapstructure:"sasl_mechanism" yaml:"sasl_mechanism"`
	SASLUsername      string        `mapstructure:"sasl_username" yaml:"sasl_username"`
	SASLPassword      string        `mapstructure:"sasl_password" yaml:"sasl_password"`
	TLSEnabled        bool          `mapstructure:"tls_enabled" yaml:"tls_enabled"`
	TLSCertPath       string        `mapstructure:"tls_cert_path" yaml:"tls_cert_path"`
	AutoCreateTopics  bool          `mapstructure:"auto_create_topics" yaml:"auto_create_topics"`
	NumPartitions     int           `mapstructure:"num_partitions" yaml:"num_partitions"`
	ReplicationFactor int           `mapstructure:"replication_factor" yaml:"replication_factor"`
}

// Enabled reports whether any broker is configured.
func (c Config) Enabled() bool { return len(c.Brokers) > 0 }

// ApplyDefaults fills unset topic names and retry settings.
func (c *Config) ApplyDefaults() {
	if c.GroupID == "" {
		c.GroupID = "solarsite-worker"
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
	}
	if c.RequestedTopic == "" {
		c.RequestedTopic = TopicAnalysisRequested
	}
	if c.CompletedTopic == "" {
		c.CompletedTopic = TopicAnalysisCompleted
	}
	if c.DeadLetterTopic == "" {
		c.DeadLetterTopic = TopicAnalysisDeadLetter
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
	if c.MaxRetryBackoff == 0 {
		c.MaxRetryBackoff = 30 * time.Second
	}
	if c.NumPartitions == 0 {
		c.NumPartitions = 6
	}
	if c.ReplicationFactor == 0 {
		c.ReplicationFactor = 1
	}
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.SASLEnabled && (c.SASLUsername == "" || c.SASLPassword == "") {
		return errors.New(errors.ErrCodeValidation, "kafka: SASL credentials required")
	}
	if c.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "kafka: max_retries must be >= 0")
	}
	return nil
}

// Producer derives the producer settings.
func (c Config) Producer() ProducerConfig {
	return ProducerConfig{
		Brokers:          c.Brokers,
		Acks:             c.Acks,
		MaxRetries:       c.MaxRetries,
		CompressionCodec: c.CompressionCodec,
		SASLEnabled:      c.SASLEnabled,
		SASLMechanism:    c.SASLMechanism,
		SASLUsername:     c.SASLUsername,
		SASLPassword:     c.SASLPassword,
		TLSEnabled:       c.TLSEnabled,
		TLSCertPath:      c.TLSCertPath,
	}
}

// Consumer derives the consumer settings for the request queue.
func (c Config) Consumer() ConsumerConfig {
	return ConsumerConfig{
		Brokers:         c.Brokers,
		GroupID:         c.GroupID,
		Topics:          []string{c.RequestedTopic},
		AutoOffsetReset: c.AutoOffsetReset,
		SASLEnabled:     c.SASLEnabled,
		SASLMechanism:   c.SASLMechanism,
		SASLUsername:    c.SASLUsername,
		SASLPassword:    c.SASLPassword,
		TLSEnabled:      c.TLSEnabled,
		TLSCertPath:     c.TLSCertPath,
		RetryConfig: RetryConfig{
			MaxRetries:      c.MaxRetries,
			RetryBackoff:    c.RetryBackoff,
			MaxRetryBackoff: c.MaxRetryBackoff,
			DeadLetterTopic: c.DeadLetterTopic,
		},
	}
}

//Personal.AI order the ending
