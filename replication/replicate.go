package replication

import (
	"context"
	"fmt"
	"strings"
	"time"

	zlogger "github.com/0chain/s3replicate/logger"
	"github.com/0chain/s3replicate/model"
	"github.com/0chain/s3replicate/s3"
	zerrors "github.com/0chain/s3replicate/zErrors"
)

var getAwsStore = func(ctx context.Context, cfg *ReplicationConfig) (s3.AwsI, error) {
	return s3.GetAwsClient(ctx, cfg.Region,
		s3.WithMultipartThreshold(cfg.MultipartThreshold),
		s3.WithPartSize(cfg.PartSize),
	)
}

type mappingState int

const (
	statePending mappingState = iota
	stateSourceValidating
	stateDestValidating
	stateListing
	stateCopying
	stateDone
	stateSkipped
	stateInterrupted
)

func (s mappingState) String() string {
	switch s {
	case statePending:
		return "PENDING"
	case stateSourceValidating:
		return "SOURCE_VALIDATING"
	case stateDestValidating:
		return "DEST_VALIDATING"
	case stateListing:
		return "LISTING"
	case stateCopying:
		return "COPYING"
	case stateDone:
		return "DONE"
	case stateSkipped:
		return "SKIPPED"
	case stateInterrupted:
		return "INTERRUPTED"
	}
	return fmt.Sprintf("mappingState(%d)", int(s))
}

type Replicator struct {
	awsStore   s3.AwsI
	counters   *model.RunCounters
	dispatcher *Dispatcher
}

func NewReplicator(awsStore s3.AwsI, cfg *ReplicationConfig) *Replicator {
	cfg.setDefaults()
	counters := &model.RunCounters{}
	return &Replicator{
		awsStore:   awsStore,
		counters:   counters,
		dispatcher: NewDispatcher(awsStore, counters, cfg),
	}
}

// bootstrap builds the storage client, checks credentials and loads the plan.
// Every error it returns is fatal for the run.
func bootstrap(ctx context.Context, cfg *ReplicationConfig) (s3.AwsI, *model.ReplicationPlan, error) {
	cfg.setDefaults()

	awsStore, err := getAwsStore(ctx, cfg)
	if err != nil {
		return nil, nil, zerrors.New(zerrors.ClientInitErrCode, fmt.Sprintf("failed to initialize S3 client: %v", err))
	}

	if err := awsStore.CheckCredentials(ctx); err != nil {
		return nil, nil, err
	}

	plan, err := LoadPlan(cfg.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	zlogger.Logger.Info().Msgf("Loaded configuration for %d source buckets", len(plan.Buckets))
	return awsStore, plan, nil
}

// StartReplication runs the whole plan. The summary is valid whenever the
// bootstrap succeeded, including when the returned error reports copy
// failures or an interruption.
func StartReplication(ctx context.Context, cfg *ReplicationConfig) (model.Summary, error) {
	zlogger.Logger.Info().Msg("Starting S3 bucket sync process")

	awsStore, plan, err := bootstrap(ctx, cfg)
	if err != nil {
		return model.Summary{}, err
	}

	summary := NewReplicator(awsStore, cfg).Run(ctx, plan)
	switch {
	case summary.Interrupted:
		return summary, zerrors.ErrOperationCancelledByUser
	case summary.Failed > 0:
		return summary, zerrors.New(zerrors.CopyFailedErrCode, fmt.Sprintf("sync completed with %d failures", summary.Failed))
	}
	return summary, nil
}

// Run processes every mapping in plan order and returns the run summary.
// Nothing that goes wrong inside one mapping stops the next one.
func (r *Replicator) Run(ctx context.Context, plan *model.ReplicationPlan) model.Summary {
	start := time.Now()

	for i := range plan.Buckets {
		if ctx.Err() != nil {
			zlogger.Logger.Warn().Msg("Sync interrupted by user")
			break
		}
		r.processMappingSafe(ctx, i, plan.Buckets[i])
	}

	summary := r.counters.Snapshot(time.Since(start))
	summary.Interrupted = ctx.Err() != nil
	logSummary(summary)
	return summary
}

func (r *Replicator) processMappingSafe(ctx context.Context, i int, mapping model.ReplicationMapping) (state mappingState) {
	defer func() {
		if rec := recover(); rec != nil {
			zlogger.Logger.Error().Int("entry", i).Msgf("Error processing bucket config: %v", rec)
			r.counters.AddMappingSkipped()
			state = stateSkipped
		}
	}()

	state = r.processMapping(ctx, mapping)
	if state == stateSkipped {
		r.counters.AddMappingSkipped()
	}
	return state
}

func transition(source string, from, to mappingState) mappingState {
	zlogger.Logger.Debug().Str("source", source).Msgf("%v -> %v", from, to)
	return to
}

func (r *Replicator) processMapping(ctx context.Context, mapping model.ReplicationMapping) mappingState {
	source := mapping.Source
	state := statePending

	separator := strings.Repeat("=", 60)
	zlogger.Logger.Info().Msg(separator)
	zlogger.Logger.Info().Msgf("Processing source bucket: %v", source)
	zlogger.Logger.Info().Msgf("Destination buckets: %v", strings.Join(mapping.Destinations, ", "))
	zlogger.Logger.Info().Msg(separator)

	state = transition(source, state, stateSourceValidating)
	if !r.validateBucket(ctx, source) {
		if ctx.Err() != nil {
			return transition(source, state, stateInterrupted)
		}
		zlogger.Logger.Error().Msgf("Skipping %v due to validation failure", source)
		return transition(source, state, stateSkipped)
	}

	state = transition(source, state, stateDestValidating)
	destinations := r.validDestinations(ctx, mapping.Destinations)
	if len(destinations) == 0 {
		if ctx.Err() != nil {
			return transition(source, state, stateInterrupted)
		}
		zlogger.Logger.Error().Msgf("No valid destination buckets for %v", source)
		return transition(source, state, stateSkipped)
	}

	state = transition(source, state, stateListing)
	objects, err := r.listObjects(ctx, source)
	if err != nil && ctx.Err() != nil {
		zlogger.Logger.Warn().Msgf("Listing of %v interrupted", source)
		return transition(source, state, stateInterrupted)
	}
	if err != nil {
		r.counters.AddListFailure()
		zlogger.Logger.Error().Err(err).Msgf("Error listing objects in bucket '%v', skipping", source)
		return transition(source, state, stateSkipped)
	}
	if len(objects) == 0 {
		zlogger.Logger.Info().Msgf("No objects found in source bucket %v", source)
		return transition(source, state, stateDone)
	}

	state = transition(source, state, stateCopying)
	r.dispatcher.Dispatch(ctx, source, objects, destinations)
	return transition(source, state, stateDone)
}

func (r *Replicator) validateBucket(ctx context.Context, bucket string) bool {
	err := r.awsStore.CheckBucket(ctx, bucket)
	switch {
	case err == nil:
		return true
	case zerrors.IsBucketNotFoundError(err):
		zlogger.Logger.Error().Msgf("Bucket '%v' does not exist", bucket)
	case zerrors.IsAccessDeniedError(err):
		zlogger.Logger.Error().Msgf("Access denied to bucket '%v'", bucket)
	default:
		zlogger.Logger.Error().Err(err).Msgf("Error accessing bucket '%v'", bucket)
	}
	return false
}

// validDestinations keeps the accessible destinations, in configuration order.
func (r *Replicator) validDestinations(ctx context.Context, destinations []string) []string {
	var valid []string
	for _, dest := range destinations {
		if r.validateBucket(ctx, dest) {
			valid = append(valid, dest)
		} else {
			zlogger.Logger.Warn().Msgf("Skipping destination bucket %v", dest)
		}
	}
	return valid
}

// listObjects drains the listing of bucket. A listing failure is returned as an
// error and never mistaken for an empty bucket.
func (r *Replicator) listObjects(ctx context.Context, bucket string) ([]*s3.ObjectMeta, error) {
	objCh, errCh := r.awsStore.ListFilesInBucket(ctx, bucket)

	var objects []*s3.ObjectMeta
	for obj := range objCh {
		objects = append(objects, obj)
	}

	if err := <-errCh; err != nil {
		return nil, err
	}

	zlogger.Logger.Info().Msgf("Found %d objects in bucket '%v'", len(objects), bucket)
	return objects, nil
}

func logSummary(summary model.Summary) {
	separator := strings.Repeat("=", 60)
	zlogger.Logger.Info().Msg(separator)
	zlogger.Logger.Info().Msg("SYNC SUMMARY")
	zlogger.Logger.Info().Msg(separator)
	zlogger.Logger.Info().Msgf("Total files copied successfully: %d", summary.Copied)
	zlogger.Logger.Info().Msgf("Total files failed: %d", summary.Failed)
	zlogger.Logger.Info().Msgf("Source buckets skipped: %d", summary.MappingsSkipped)
	zlogger.Logger.Info().Msgf("Listing failures: %d", summary.ListFailures)
	zlogger.Logger.Info().Msgf("Total time: %.2f seconds", summary.Duration.Seconds())
	zlogger.Logger.Info().Msg(separator)

	switch {
	case summary.Interrupted:
		zlogger.Logger.Warn().Msg("Sync interrupted; the summary above is partial.")
	case summary.Failed > 0:
		zlogger.Logger.Warn().Msgf("Sync completed with %d failures. Check logs for details.", summary.Failed)
	default:
		zlogger.Logger.Info().Msg("All files synced successfully!")
	}
}

// ValidatePlan checks every bucket of plan without copying anything. It returns
// the plan reduced to the mappings that would run, with their valid
// destinations, and the number of mappings that would be skipped.
func (r *Replicator) ValidatePlan(ctx context.Context, plan *model.ReplicationPlan) (*model.ReplicationPlan, int) {
	resolved := &model.ReplicationPlan{Buckets: []model.ReplicationMapping{}}
	skipped := 0

	for _, mapping := range plan.Buckets {
		if !r.validateBucket(ctx, mapping.Source) {
			skipped++
			continue
		}

		destinations := r.validDestinations(ctx, mapping.Destinations)
		if len(destinations) == 0 {
			skipped++
			continue
		}

		resolved.Buckets = append(resolved.Buckets, model.ReplicationMapping{
			Source:       mapping.Source,
			Destinations: destinations,
		})
	}
	return resolved, skipped
}

// StartValidation bootstraps like StartReplication and validates the plan.
func StartValidation(ctx context.Context, cfg *ReplicationConfig) (*model.ReplicationPlan, int, error) {
	awsStore, plan, err := bootstrap(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}

	resolved, skipped := NewReplicator(awsStore, cfg).ValidatePlan(ctx, plan)
	return resolved, skipped, nil
}
