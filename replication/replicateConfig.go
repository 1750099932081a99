package replication

import (
	"time"
)

const (
	DefaultConfigPath  = "buckets.yaml"
	DefaultConcurrency = 1
	DefaultRetryCount  = 3
	DefaultDelay       = 10 * time.Millisecond
)

type ReplicationConfig struct {
	ConfigPath string
	Region     string
	// Concurrency is the number of copy requests allowed in flight at once.
	Concurrency int
	// RetryCount is how many times a transiently failing copy is retried.
	RetryCount int
	// Delay is the minimum spacing between two copy requests; 0 disables the limit.
	Delay              time.Duration
	MultipartThreshold int64
	PartSize           int64
	// Silent disables the interactive progress bar.
	Silent bool
}

func (c *ReplicationConfig) setDefaults() {
	if c.ConfigPath == "" {
		c.ConfigPath = DefaultConfigPath
	}
	if c.Concurrency < 1 {
		c.Concurrency = DefaultConcurrency
	}
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
}
