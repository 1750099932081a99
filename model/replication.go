package model

import (
	"sync/atomic"
	"time"
)

// ReplicationMapping is one source bucket and the buckets its objects are copied to,
// in configuration order.
type ReplicationMapping struct {
	Source       string   `yaml:"source_bucket"`
	Destinations []string `yaml:"destination_buckets"`
}

// ReplicationPlan is the full plan file of one run.
type ReplicationPlan struct {
	Buckets []ReplicationMapping `yaml:"buckets"`
}

// Pair is the unit of a single copy attempt.
type Pair struct {
	Key         string
	Size        int64
	Destination string
}

// RunCounters accumulate outcomes over the whole run. Safe for concurrent use.
type RunCounters struct {
	copied          atomic.Int64
	failed          atomic.Int64
	mappingsSkipped atomic.Int64
	listFailures    atomic.Int64
}

func (c *RunCounters) AddCopied()         { c.copied.Add(1) }
func (c *RunCounters) AddFailed()         { c.failed.Add(1) }
func (c *RunCounters) AddMappingSkipped() { c.mappingsSkipped.Add(1) }
func (c *RunCounters) AddListFailure()    { c.listFailures.Add(1) }

func (c *RunCounters) Copied() int64          { return c.copied.Load() }
func (c *RunCounters) Failed() int64          { return c.failed.Load() }
func (c *RunCounters) MappingsSkipped() int64 { return c.mappingsSkipped.Load() }
func (c *RunCounters) ListFailures() int64    { return c.listFailures.Load() }

// Summary is the outcome of a run, possibly partial when the run was interrupted.
type Summary struct {
	Copied          int64
	Failed          int64
	MappingsSkipped int64
	ListFailures    int64
	Duration        time.Duration
	Interrupted     bool
}

// Snapshot freezes the counters into a Summary.
func (c *RunCounters) Snapshot(d time.Duration) Summary {
	return Summary{
		Copied:          c.Copied(),
		Failed:          c.Failed(),
		MappingsSkipped: c.MappingsSkipped(),
		ListFailures:    c.ListFailures(),
		Duration:        d,
	}
}

// Success reports whether every attempted copy succeeded and the run was not interrupted.
func (s Summary) Success() bool {
	return s.Failed == 0 && !s.Interrupted
}
