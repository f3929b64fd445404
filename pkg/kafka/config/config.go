package config

import "time"

// Config holds producer settings for the event stream.
type Config struct {
	Brokers []string

	ProducerCompression  string
	ProducerRequireAcks  int
	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerAsync        bool
}

func Default(brokers []string) *Config {
	return &Config{
		Brokers:              brokers,
		ProducerCompression:  "snappy",
		ProducerRequireAcks:  -1,
		ProducerMaxAttempts:  3,
		ProducerBatchTimeout: 100 * time.Millisecond,
		ProducerAsync:        false,
	}
}
