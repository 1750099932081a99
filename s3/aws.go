package s3

import (
	"context"
	"fmt"
	"sync"

	zlogger "github.com/0chain/s3replicate/logger"
	zerrors "github.com/0chain/s3replicate/zErrors"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	DefaultRegion = "us-east-1"

	// listPageSize is the largest page ListObjectsV2 returns.
	listPageSize = int32(1000)
)

// CredentialEnvVars are the environment variables the default credential chain reads first.
var CredentialEnvVars = []string{
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"AWS_SESSION_TOKEN (if using temporary credentials)",
}

type AwsClient struct {
	cfg           aws.Config
	defaultRegion string
	multipart     multipartConfig

	newClient    func(region string) S3API
	bucketRegion func(ctx context.Context, client S3API, bucket string) (string, error)

	mu      sync.Mutex
	clients map[string]S3API // region -> client
	regions map[string]string
}

// Option customises an AwsClient.
type Option func(*AwsClient)

// WithMultipartThreshold sets the object size above which copies are done in
// parts. It cannot exceed the single-request copy limit of 5GiB.
func WithMultipartThreshold(size int64) Option {
	return func(a *AwsClient) {
		if size > 0 && size <= MaxSimpleCopySize {
			a.multipart.threshold = size
		}
	}
}

// WithPartSize sets the preferred part size of multipart copies.
func WithPartSize(size int64) Option {
	return func(a *AwsClient) {
		if size >= MinPartSize {
			a.multipart.partSize = size
		}
	}
}

// GetAwsClient builds a client from the ambient AWS configuration: environment
// variables, shared config files and instance roles. Credentials are never read
// from the replication plan.
func GetAwsClient(ctx context.Context, region string, opts ...Option) (*AwsClient, error) {
	if region == "" {
		region = DefaultRegion
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w (region: %v)", err, region)
	}

	awsClient := newAwsClient(cfg, region, newS3ClientFactory(cfg), opts...)

	zlogger.Logger.Info().
		Str("region", region).
		Int64("multipartThreshold", awsClient.multipart.threshold).
		Msg("Aws client initialized")
	return awsClient, nil
}

// newS3ClientFactory builds per-region SDK clients with the SDK retryer turned
// off. Failed requests are retried by the replication worker only.
func newS3ClientFactory(cfg aws.Config, optFns ...func(*awsS3.Options)) func(region string) S3API {
	return func(region string) S3API {
		return awsS3.NewFromConfig(cfg, append([]func(*awsS3.Options){func(o *awsS3.Options) {
			o.Region = region
			o.Retryer = aws.NopRetryer{}
		}}, optFns...)...)
	}
}

func newAwsClient(cfg aws.Config, region string, newClient func(region string) S3API, opts ...Option) *AwsClient {
	a := &AwsClient{
		cfg:           cfg,
		defaultRegion: region,
		multipart:     defaultMultipartConfig(),
		newClient:     newClient,
		bucketRegion: func(ctx context.Context, client S3API, bucket string) (string, error) {
			return manager.GetBucketRegion(ctx, client, bucket)
		},
		clients: map[string]S3API{},
		regions: map[string]string{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AwsClient) CheckCredentials(ctx context.Context) error {
	if a.cfg.Credentials == nil {
		return zerrors.ErrMissingCredentials
	}
	creds, err := a.cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", zerrors.ErrMissingCredentials, err)
	}
	if !creds.HasKeys() {
		return zerrors.ErrMissingCredentials
	}
	zlogger.Logger.Info().Str("source", creds.Source).Msg("Successfully initialized S3 client")
	return nil
}

func (a *AwsClient) clientFor(region string) S3API {
	a.mu.Lock()
	defer a.mu.Unlock()

	client, ok := a.clients[region]
	if !ok {
		client = a.newClient(region)
		a.clients[region] = client
	}
	return client
}

// getBucketRegion returns the region bucket lives in. Every bucket is looked up
// once; a failed lookup pins the bucket to the default region so the following
// requests report the real error. Lookups cut short by cancellation are not kept.
func (a *AwsClient) getBucketRegion(ctx context.Context, bucket string) string {
	a.mu.Lock()
	region, ok := a.regions[bucket]
	a.mu.Unlock()
	if ok {
		return region
	}

	region, err := a.bucketRegion(ctx, a.clientFor(a.defaultRegion), bucket)
	if err != nil || region == "" {
		zlogger.Logger.Debug().Err(err).Str("bucket", bucket).Msg("could not resolve bucket region")
		if ctx.Err() != nil {
			return a.defaultRegion
		}
		region = a.defaultRegion
	}

	a.mu.Lock()
	a.regions[bucket] = region
	a.mu.Unlock()
	return region
}

func (a *AwsClient) bucketClient(ctx context.Context, bucket string) S3API {
	return a.clientFor(a.getBucketRegion(ctx, bucket))
}

func (a *AwsClient) CheckBucket(ctx context.Context, bucket string) error {
	_, err := a.bucketClient(ctx, bucket).HeadBucket(ctx, &awsS3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return classifyBucketError(bucket, err)
	}
	return nil
}

func (a *AwsClient) ListFilesInBucket(ctx context.Context, bucket string) (<-chan *ObjectMeta, <-chan error) {
	objectMetaChan := make(chan *ObjectMeta, 1000)
	errChan := make(chan error, 1)

	go func() {
		defer func() {
			close(objectMetaChan)
			close(errChan)
		}()

		listObjectsInput := &awsS3.ListObjectsV2Input{
			Bucket: aws.String(bucket),
		}

		pageNumber := 0
		listObjectsPaginator := awsS3.NewListObjectsV2Paginator(a.bucketClient(ctx, bucket), listObjectsInput, func(o *awsS3.ListObjectsV2PaginatorOptions) {
			o.Limit = listPageSize
		})

		for listObjectsPaginator.HasMorePages() {
			pageNumber++
			page, err := listObjectsPaginator.NextPage(ctx)
			if err != nil {
				errChan <- zerrors.New(zerrors.ListFailedErrCode,
					fmt.Sprintf("listing bucket %v failed on page %d: %v", bucket, pageNumber, err))
				return
			}

			for _, obj := range page.Contents {
				meta := &ObjectMeta{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
				select {
				case objectMetaChan <- meta:
				case <-ctx.Done():
					errChan <- ctx.Err()
					return
				}
			}
		}
	}()
	return objectMetaChan, errChan
}

func (a *AwsClient) CopyObject(ctx context.Context, srcBucket, dstBucket string, object *ObjectMeta) error {
	client := a.bucketClient(ctx, dstBucket)
	if object.Size > a.multipart.threshold {
		return a.multipartCopy(ctx, client, srcBucket, dstBucket, object)
	}

	_, err := client.CopyObject(ctx, &awsS3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(object.Key),
		CopySource: aws.String(copySource(srcBucket, object.Key)),
	})
	if err != nil {
		return fmt.Errorf("copy %v/%v to %v: %w", srcBucket, object.Key, dstBucket, err)
	}
	return nil
}
