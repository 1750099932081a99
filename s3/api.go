package s3

import (
	"context"

	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the SDK client used by AwsClient.
type S3API interface {
	HeadBucket(ctx context.Context, params *awsS3.HeadBucketInput, optFns ...func(*awsS3.Options)) (*awsS3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *awsS3.ListObjectsV2Input, optFns ...func(*awsS3.Options)) (*awsS3.ListObjectsV2Output, error)
	CopyObject(ctx context.Context, params *awsS3.CopyObjectInput, optFns ...func(*awsS3.Options)) (*awsS3.CopyObjectOutput, error)
	CreateMultipartUpload(ctx context.Context, params *awsS3.CreateMultipartUploadInput, optFns ...func(*awsS3.Options)) (*awsS3.CreateMultipartUploadOutput, error)
	UploadPartCopy(ctx context.Context, params *awsS3.UploadPartCopyInput, optFns ...func(*awsS3.Options)) (*awsS3.UploadPartCopyOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *awsS3.CompleteMultipartUploadInput, optFns ...func(*awsS3.Options)) (*awsS3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *awsS3.AbortMultipartUploadInput, optFns ...func(*awsS3.Options)) (*awsS3.AbortMultipartUploadOutput, error)
}

var _ S3API = (*awsS3.Client)(nil)
