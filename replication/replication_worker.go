package replication

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	zlogger "github.com/0chain/s3replicate/logger"
	"github.com/0chain/s3replicate/model"
	"github.com/0chain/s3replicate/s3"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Dispatcher copies (object, destination) pairs through a bounded worker pool.
// A single pair failing never stops the others.
type Dispatcher struct {
	awsStore    s3.AwsI
	counters    *model.RunCounters
	limiter     *rate.Limiter
	concurrency int
	retryCount  int

	newBackOff  func() backoff.BackOff
	newProgress func(title string, total int) progress
}

func NewDispatcher(awsStore s3.AwsI, counters *model.RunCounters, cfg *ReplicationConfig) *Dispatcher {
	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	d := &Dispatcher{
		awsStore:    awsStore,
		counters:    counters,
		limiter:     rate.NewLimiter(limit, 1),
		concurrency: cfg.Concurrency,
		retryCount:  cfg.RetryCount,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
		newProgress: newBarProgress,
	}
	if cfg.Silent {
		d.newProgress = newLogProgress
	}
	return d
}

// buildPairs lays out the task list: objects in listing order, and for each
// object the destinations in configuration order.
func buildPairs(objects []*s3.ObjectMeta, destinations []string) []model.Pair {
	pairs := make([]model.Pair, 0, len(objects)*len(destinations))
	for _, obj := range objects {
		for _, dest := range destinations {
			pairs = append(pairs, model.Pair{Key: obj.Key, Size: obj.Size, Destination: dest})
		}
	}
	return pairs
}

// Dispatch copies every object of source to every destination. With a
// concurrency of one, pairs run strictly in task-list order. When ctx is
// cancelled no new pair is started; pairs never started are not counted.
func (d *Dispatcher) Dispatch(ctx context.Context, source string, objects []*s3.ObjectMeta, destinations []string) {
	pairs := buildPairs(objects, destinations)
	total := len(pairs)
	if total == 0 {
		zlogger.Logger.Info().Str("source", source).Msg("No objects to copy")
		return
	}

	zlogger.Logger.Info().Msgf("Starting copy of %d objects to %d destination buckets", len(objects), len(destinations))

	bar := d.newProgress(fmt.Sprintf("Copying from %v", source), total)
	defer bar.Stop()

	var done atomic.Int64
	// Not errgroup.WithContext: a failed pair must not cancel its siblings.
	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)

	for _, pair := range pairs {
		if ctx.Err() != nil {
			break
		}

		pair := pair
		g.Go(func() error {
			if !d.copyPair(ctx, source, pair) {
				return nil
			}
			n := done.Add(1)
			bar.Increment()
			zlogger.Logger.Debug().Msgf("%v: %d/%d", source, n, total)
			return nil
		})
	}

	_ = g.Wait()
}

// copyPair runs one pair and records its outcome. It returns false when the
// pair was never attempted because ctx ended first.
func (d *Dispatcher) copyPair(ctx context.Context, source string, pair model.Pair) bool {
	if err := d.limiter.Wait(ctx); err != nil {
		return false
	}

	if err := d.copyWithRetry(ctx, source, pair); err != nil {
		d.counters.AddFailed()
		zlogger.Logger.Warn().Err(err).Msgf("✗ Failed to copy %v to %v", pair.Key, pair.Destination)
		return true
	}

	d.counters.AddCopied()
	zlogger.Logger.Debug().Msgf("✓ Copied %v to %v", pair.Key, pair.Destination)
	return true
}

func (d *Dispatcher) copyWithRetry(ctx context.Context, source string, pair model.Pair) error {
	object := &s3.ObjectMeta{Key: pair.Key, Size: pair.Size}

	attempt := 0
	operation := func() error {
		attempt++
		err := d.safeCopy(ctx, source, pair.Destination, object)
		if err == nil {
			return nil
		}
		if !s3.IsRetryable(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		zlogger.Logger.Debug().Err(err).Int("attempt", attempt).Msgf("retrying copy of %v to %v", pair.Key, pair.Destination)
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(d.newBackOff(), uint64(d.retryCount)), ctx)
	return backoff.Retry(operation, b)
}

// safeCopy turns a panic inside the storage client into an error for this pair.
func (d *Dispatcher) safeCopy(ctx context.Context, source, destination string, object *s3.ObjectMeta) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error copying %v: %v", object.Key, r)
		}
	}()
	return d.awsStore.CopyObject(ctx, source, destination, object)
}
