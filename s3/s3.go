package s3

import (
	"context"
)

//go:generate mockgen -destination mocks/mock_aws.go -package mock_s3 github.com/0chain/s3replicate/s3 AwsI
type AwsI interface {
	// CheckCredentials fails when no credentials can be resolved from the environment.
	CheckCredentials(ctx context.Context) error
	// CheckBucket confirms bucket exists and is accessible with the current credentials.
	CheckBucket(ctx context.Context, bucket string) error
	// ListFilesInBucket streams every object of bucket. The error channel receives at most one error.
	ListFilesInBucket(ctx context.Context, bucket string) (<-chan *ObjectMeta, <-chan error)
	// CopyObject copies object from srcBucket to dstBucket under the same key, server side.
	CopyObject(ctx context.Context, srcBucket, dstBucket string, object *ObjectMeta) error
}

// ObjectMeta key: object key, size: size of object in bytes
type ObjectMeta struct {
	Key  string
	Size int64
}
