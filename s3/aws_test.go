package s3

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	zlogger "github.com/0chain/s3replicate/logger"
	zerrors "github.com/0chain/s3replicate/zErrors"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awsTypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a function-field fake of S3API; unset operations succeed with empty output.
type fakeS3 struct {
	mu sync.Mutex

	HeadBucketFunc              func(*awsS3.HeadBucketInput) (*awsS3.HeadBucketOutput, error)
	ListObjectsV2Func           func(*awsS3.ListObjectsV2Input) (*awsS3.ListObjectsV2Output, error)
	CopyObjectFunc              func(*awsS3.CopyObjectInput) (*awsS3.CopyObjectOutput, error)
	CreateMultipartUploadFunc   func(*awsS3.CreateMultipartUploadInput) (*awsS3.CreateMultipartUploadOutput, error)
	UploadPartCopyFunc          func(*awsS3.UploadPartCopyInput) (*awsS3.UploadPartCopyOutput, error)
	CompleteMultipartUploadFunc func(*awsS3.CompleteMultipartUploadInput) (*awsS3.CompleteMultipartUploadOutput, error)
	AbortMultipartUploadFunc    func(*awsS3.AbortMultipartUploadInput) (*awsS3.AbortMultipartUploadOutput, error)

	calls []string

	abortDeadline    time.Time
	abortHasDeadline bool
	abortCtxErr      error
}

func (f *fakeS3) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeS3) HeadBucket(_ context.Context, in *awsS3.HeadBucketInput, _ ...func(*awsS3.Options)) (*awsS3.HeadBucketOutput, error) {
	f.record("HeadBucket")
	if f.HeadBucketFunc != nil {
		return f.HeadBucketFunc(in)
	}
	return &awsS3.HeadBucketOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *awsS3.ListObjectsV2Input, _ ...func(*awsS3.Options)) (*awsS3.ListObjectsV2Output, error) {
	f.record("ListObjectsV2")
	if f.ListObjectsV2Func != nil {
		return f.ListObjectsV2Func(in)
	}
	return &awsS3.ListObjectsV2Output{}, nil
}

func (f *fakeS3) CopyObject(_ context.Context, in *awsS3.CopyObjectInput, _ ...func(*awsS3.Options)) (*awsS3.CopyObjectOutput, error) {
	f.record("CopyObject")
	if f.CopyObjectFunc != nil {
		return f.CopyObjectFunc(in)
	}
	return &awsS3.CopyObjectOutput{}, nil
}

func (f *fakeS3) CreateMultipartUpload(_ context.Context, in *awsS3.CreateMultipartUploadInput, _ ...func(*awsS3.Options)) (*awsS3.CreateMultipartUploadOutput, error) {
	f.record("CreateMultipartUpload")
	if f.CreateMultipartUploadFunc != nil {
		return f.CreateMultipartUploadFunc(in)
	}
	return &awsS3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
}

func (f *fakeS3) UploadPartCopy(_ context.Context, in *awsS3.UploadPartCopyInput, _ ...func(*awsS3.Options)) (*awsS3.UploadPartCopyOutput, error) {
	f.record("UploadPartCopy")
	if f.UploadPartCopyFunc != nil {
		return f.UploadPartCopyFunc(in)
	}
	return &awsS3.UploadPartCopyOutput{CopyPartResult: &awsTypes.CopyPartResult{ETag: aws.String("etag")}}, nil
}

func (f *fakeS3) CompleteMultipartUpload(_ context.Context, in *awsS3.CompleteMultipartUploadInput, _ ...func(*awsS3.Options)) (*awsS3.CompleteMultipartUploadOutput, error) {
	f.record("CompleteMultipartUpload")
	if f.CompleteMultipartUploadFunc != nil {
		return f.CompleteMultipartUploadFunc(in)
	}
	return &awsS3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeS3) AbortMultipartUpload(ctx context.Context, in *awsS3.AbortMultipartUploadInput, _ ...func(*awsS3.Options)) (*awsS3.AbortMultipartUploadOutput, error) {
	f.record("AbortMultipartUpload")
	f.mu.Lock()
	f.abortDeadline, f.abortHasDeadline = ctx.Deadline()
	f.abortCtxErr = ctx.Err()
	f.mu.Unlock()
	if f.AbortMultipartUploadFunc != nil {
		return f.AbortMultipartUploadFunc(in)
	}
	return &awsS3.AbortMultipartUploadOutput{}, nil
}

func newTestClient(api S3API, opts ...Option) *AwsClient {
	zlogger.SetOutput(io.Discard)
	a := newAwsClient(aws.Config{}, DefaultRegion, func(string) S3API { return api }, opts...)
	a.bucketRegion = func(context.Context, S3API, string) (string, error) { return DefaultRegion, nil }
	return a
}

func statusErr(code int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: code}},
		Err:      errors.New(http.StatusText(code)),
	}
}

func TestAwsClient_CheckBucket(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantErr  bool
	}{
		{name: "accessible bucket"},
		{name: "404 status", err: statusErr(http.StatusNotFound), wantCode: zerrors.BucketNotFoundErrCode, wantErr: true},
		{name: "403 status", err: statusErr(http.StatusForbidden), wantCode: zerrors.AccessDeniedErrCode, wantErr: true},
		{name: "NoSuchBucket code", err: &smithy.GenericAPIError{Code: "NoSuchBucket"}, wantCode: zerrors.BucketNotFoundErrCode, wantErr: true},
		{name: "AccessDenied code", err: &smithy.GenericAPIError{Code: "AccessDenied"}, wantCode: zerrors.AccessDeniedErrCode, wantErr: true},
		{name: "other error", err: statusErr(http.StatusInternalServerError), wantCode: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeS3{HeadBucketFunc: func(in *awsS3.HeadBucketInput) (*awsS3.HeadBucketOutput, error) {
				assert.Equal(t, "bucket-a", aws.ToString(in.Bucket))
				return &awsS3.HeadBucketOutput{}, tt.err
			}}

			err := newTestClient(api).CheckBucket(context.Background(), "bucket-a")
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, zerrors.Code(err))
			assert.Contains(t, err.Error(), "bucket-a")
		})
	}
}

func TestAwsClient_ListFilesInBucket(t *testing.T) {
	api := &fakeS3{ListObjectsV2Func: func(in *awsS3.ListObjectsV2Input) (*awsS3.ListObjectsV2Output, error) {
		assert.Equal(t, listPageSize, aws.ToInt32(in.MaxKeys))
		if in.ContinuationToken == nil {
			return &awsS3.ListObjectsV2Output{
				Contents: []awsTypes.Object{
					{Key: aws.String("a"), Size: aws.Int64(1)},
					{Key: aws.String("b/c"), Size: aws.Int64(2)},
				},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("page-2"),
			}, nil
		}
		assert.Equal(t, "page-2", aws.ToString(in.ContinuationToken))
		return &awsS3.ListObjectsV2Output{
			Contents:    []awsTypes.Object{{Key: aws.String("d"), Size: aws.Int64(3)}},
			IsTruncated: aws.Bool(false),
		}, nil
	}}

	objCh, errCh := newTestClient(api).ListFilesInBucket(context.Background(), "src")

	var got []ObjectMeta
	for obj := range objCh {
		got = append(got, *obj)
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []ObjectMeta{{Key: "a", Size: 1}, {Key: "b/c", Size: 2}, {Key: "d", Size: 3}}, got)
}

func TestAwsClient_ListFilesInBucketError(t *testing.T) {
	api := &fakeS3{ListObjectsV2Func: func(in *awsS3.ListObjectsV2Input) (*awsS3.ListObjectsV2Output, error) {
		return nil, statusErr(http.StatusForbidden)
	}}

	objCh, errCh := newTestClient(api).ListFilesInBucket(context.Background(), "src")
	for range objCh {
		t.Fatal("no objects expected")
	}
	err := <-errCh
	require.Error(t, err)
	assert.True(t, zerrors.IsListFailedError(err))
}

func TestAwsClient_CopyObject(t *testing.T) {
	api := &fakeS3{CopyObjectFunc: func(in *awsS3.CopyObjectInput) (*awsS3.CopyObjectOutput, error) {
		assert.Equal(t, "dst", aws.ToString(in.Bucket))
		assert.Equal(t, "dir/file name.txt", aws.ToString(in.Key))
		assert.Equal(t, "src/dir%2Ffile%20name.txt", aws.ToString(in.CopySource))
		return &awsS3.CopyObjectOutput{}, nil
	}}

	err := newTestClient(api).CopyObject(context.Background(), "src", "dst", &ObjectMeta{Key: "dir/file name.txt", Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"CopyObject"}, api.calls)
}

func TestAwsClient_CopyObjectError(t *testing.T) {
	api := &fakeS3{CopyObjectFunc: func(in *awsS3.CopyObjectInput) (*awsS3.CopyObjectOutput, error) {
		return nil, &smithy.GenericAPIError{Code: "SlowDown"}
	}}

	err := newTestClient(api).CopyObject(context.Background(), "src", "dst", &ObjectMeta{Key: "k"})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestAwsClient_MultipartCopy(t *testing.T) {
	var ranges []string
	var completed []awsTypes.CompletedPart
	api := &fakeS3{
		UploadPartCopyFunc: func(in *awsS3.UploadPartCopyInput) (*awsS3.UploadPartCopyOutput, error) {
			assert.Equal(t, "upload-1", aws.ToString(in.UploadId))
			assert.Equal(t, "src/big", aws.ToString(in.CopySource))
			ranges = append(ranges, aws.ToString(in.CopySourceRange))
			return &awsS3.UploadPartCopyOutput{CopyPartResult: &awsTypes.CopyPartResult{ETag: aws.String("e")}}, nil
		},
		CompleteMultipartUploadFunc: func(in *awsS3.CompleteMultipartUploadInput) (*awsS3.CompleteMultipartUploadOutput, error) {
			completed = in.MultipartUpload.Parts
			return &awsS3.CompleteMultipartUploadOutput{}, nil
		},
	}

	size := 2*MinPartSize + 10
	client := newTestClient(api, WithMultipartThreshold(MinPartSize), WithPartSize(MinPartSize))
	err := client.CopyObject(context.Background(), "src", "dst", &ObjectMeta{Key: "big", Size: size})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bytes=0-5242879",
		"bytes=5242880-10485759",
		"bytes=10485760-10485769",
	}, ranges)
	require.Len(t, completed, 3)
	for i, part := range completed {
		assert.Equal(t, int32(i+1), aws.ToInt32(part.PartNumber))
	}
	assert.NotContains(t, api.calls, "CopyObject")
	assert.NotContains(t, api.calls, "AbortMultipartUpload")
}

func TestAwsClient_MultipartCopyAbortsOnFailure(t *testing.T) {
	api := &fakeS3{UploadPartCopyFunc: func(in *awsS3.UploadPartCopyInput) (*awsS3.UploadPartCopyOutput, error) {
		return nil, statusErr(http.StatusForbidden)
	}}

	client := newTestClient(api, WithMultipartThreshold(1))
	err := client.CopyObject(context.Background(), "src", "dst", &ObjectMeta{Key: "big", Size: 100})
	require.Error(t, err)
	assert.Contains(t, api.calls, "AbortMultipartUpload")
	assert.NotContains(t, api.calls, "CompleteMultipartUpload")
}

func TestAwsClient_MultipartAbortOutlivesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeS3{UploadPartCopyFunc: func(in *awsS3.UploadPartCopyInput) (*awsS3.UploadPartCopyOutput, error) {
		cancel()
		return nil, context.Canceled
	}}

	start := time.Now()
	err := newTestClient(api, WithMultipartThreshold(1)).CopyObject(ctx, "src", "dst", &ObjectMeta{Key: "big", Size: 100})
	require.Error(t, err)

	require.Contains(t, api.calls, "AbortMultipartUpload")
	assert.NoError(t, api.abortCtxErr)
	require.True(t, api.abortHasDeadline)
	assert.WithinDuration(t, start.Add(abortTimeout), api.abortDeadline, 5*time.Second)
}

func TestAwsClient_CheckCredentials(t *testing.T) {
	zlogger.SetOutput(io.Discard)

	withKeys := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: "id", SecretAccessKey: "secret", Source: "test"}, nil
	})
	noCreds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{}, errors.New("no credential providers")
	})

	ok := newAwsClient(aws.Config{Credentials: withKeys}, DefaultRegion, nil)
	require.NoError(t, ok.CheckCredentials(context.Background()))

	missing := newAwsClient(aws.Config{Credentials: noCreds}, DefaultRegion, nil)
	err := missing.CheckCredentials(context.Background())
	require.Error(t, err)
	assert.True(t, zerrors.IsMissingCredentialsError(err))

	none := newAwsClient(aws.Config{}, DefaultRegion, nil)
	assert.True(t, zerrors.IsMissingCredentialsError(none.CheckCredentials(context.Background())))
}

func TestAwsClient_RegionCache(t *testing.T) {
	zlogger.SetOutput(io.Discard)

	var lookups int
	clients := map[string]*fakeS3{}
	a := newAwsClient(aws.Config{}, DefaultRegion, func(region string) S3API {
		c := &fakeS3{}
		clients[region] = c
		return c
	})
	a.bucketRegion = func(_ context.Context, _ S3API, bucket string) (string, error) {
		lookups++
		if bucket == "eu-bucket" {
			return "eu-west-1", nil
		}
		return "", errors.New("lookup failed")
	}

	ctx := context.Background()
	require.NoError(t, a.CheckBucket(ctx, "eu-bucket"))
	require.NoError(t, a.CheckBucket(ctx, "eu-bucket"))
	require.NoError(t, a.CheckBucket(ctx, "unknown"))

	assert.Equal(t, 2, lookups)
	assert.Equal(t, []string{"HeadBucket", "HeadBucket"}, clients["eu-west-1"].calls)
	assert.Equal(t, []string{"HeadBucket"}, clients[DefaultRegion].calls)
}

func TestAwsClient_FailedRegionLookupIsCached(t *testing.T) {
	zlogger.SetOutput(io.Discard)

	var lookups int
	api := &fakeS3{}
	a := newAwsClient(aws.Config{}, DefaultRegion, func(string) S3API { return api })
	a.bucketRegion = func(context.Context, S3API, string) (string, error) {
		lookups++
		return "", errors.New("HEAD not allowed")
	}

	ctx := context.Background()
	require.NoError(t, a.CheckBucket(ctx, "dst"))
	for i := 0; i < 100; i++ {
		require.NoError(t, a.CopyObject(ctx, "src", "dst", &ObjectMeta{Key: "k", Size: 1}))
	}

	assert.Equal(t, 1, lookups)
}

func TestAwsClient_CancelledRegionLookupIsNotCached(t *testing.T) {
	zlogger.SetOutput(io.Discard)

	var lookups int
	a := newAwsClient(aws.Config{}, DefaultRegion, func(string) S3API { return &fakeS3{} })
	a.bucketRegion = func(ctx context.Context, _ S3API, _ string) (string, error) {
		lookups++
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "eu-west-1", nil
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, DefaultRegion, a.getBucketRegion(cancelled, "dst"))
	assert.Equal(t, "eu-west-1", a.getBucketRegion(context.Background(), "dst"))
	assert.Equal(t, 2, lookups)
}

// slowDownServer answers every request with a 503 SlowDown and counts requests.
func slowDownServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>SlowDown</Code><Message>Please reduce your request rate.</Message></Error>`)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestS3ClientFactory_SendsOneRequestPerCall(t *testing.T) {
	zlogger.SetOutput(io.Discard)
	srv, requests := slowDownServer(t)

	cfg := aws.Config{
		Region:       DefaultRegion,
		BaseEndpoint: aws.String(srv.URL),
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}, nil
		}),
	}
	a := newAwsClient(cfg, DefaultRegion, newS3ClientFactory(cfg, func(o *awsS3.Options) {
		o.UsePathStyle = true
	}))
	a.bucketRegion = func(context.Context, S3API, string) (string, error) { return DefaultRegion, nil }

	err := a.CopyObject(context.Background(), "src", "dst", &ObjectMeta{Key: "k", Size: 1})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int64(1), requests.Load())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "throttled", err: &smithy.GenericAPIError{Code: "SlowDown"}, want: true},
		{name: "server error", err: statusErr(http.StatusServiceUnavailable), want: true},
		{name: "too many requests", err: statusErr(http.StatusTooManyRequests), want: true},
		{name: "access denied", err: statusErr(http.StatusForbidden), want: false},
		{name: "no such key", err: &smithy.GenericAPIError{Code: "NoSuchKey"}, want: false},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestMultipartConfig_PartSizeFor(t *testing.T) {
	m := defaultMultipartConfig()
	assert.Equal(t, defaultPartSize, m.partSizeFor(MaxSimpleCopySize*2))

	huge := defaultPartSize * maxParts * 2
	assert.Equal(t, huge/maxParts, m.partSizeFor(huge))

	m.partSize = 1
	assert.Equal(t, MinPartSize, m.partSizeFor(10))
}
