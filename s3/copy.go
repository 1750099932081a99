package s3

import (
	"context"
	"fmt"
	"net/url"
	"time"

	zlogger "github.com/0chain/s3replicate/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awsTypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	// MaxSimpleCopySize is the CopyObject limit; larger objects must be copied in parts.
	MaxSimpleCopySize = int64(5 * 1024 * 1024 * 1024)
	MinPartSize       = int64(5 * 1024 * 1024)
	defaultPartSize   = int64(64 * 1024 * 1024)
	maxParts          = int64(10000)

	// abortTimeout bounds the cleanup of a failed multipart copy, which runs
	// even after the run was cancelled.
	abortTimeout = 30 * time.Second
)

type multipartConfig struct {
	threshold int64
	partSize  int64
}

func defaultMultipartConfig() multipartConfig {
	return multipartConfig{
		threshold: MaxSimpleCopySize,
		partSize:  defaultPartSize,
	}
}

// partSizeFor grows the configured part size until size fits in maxParts parts.
func (m multipartConfig) partSizeFor(size int64) int64 {
	partSize := m.partSize
	if partSize < MinPartSize {
		partSize = MinPartSize
	}
	if fit := (size + maxParts - 1) / maxParts; partSize < fit {
		partSize = fit
	}
	return partSize
}

func copySource(bucket, key string) string {
	return bucket + "/" + url.PathEscape(key)
}

// multipartCopy copies object part by part with UploadPartCopy. Parts are issued
// one at a time so a pair never holds more than one request in flight.
func (a *AwsClient) multipartCopy(ctx context.Context, client S3API, srcBucket, dstBucket string, object *ObjectMeta) error {
	created, err := client.CreateMultipartUpload(ctx, &awsS3.CreateMultipartUploadInput{
		Bucket: aws.String(dstBucket),
		Key:    aws.String(object.Key),
	})
	if err != nil {
		return fmt.Errorf("create multipart copy of %v/%v to %v: %w", srcBucket, object.Key, dstBucket, err)
	}
	uploadID := aws.ToString(created.UploadId)

	parts, err := a.copyParts(ctx, client, srcBucket, dstBucket, object, uploadID)
	if err == nil {
		_, err = client.CompleteMultipartUpload(ctx, &awsS3.CompleteMultipartUploadInput{
			Bucket:          aws.String(dstBucket),
			Key:             aws.String(object.Key),
			UploadId:        aws.String(uploadID),
			MultipartUpload: &awsTypes.CompletedMultipartUpload{Parts: parts},
		})
	}
	if err != nil {
		// ctx may already be cancelled; the abort must still go out.
		abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
		_, abortErr := client.AbortMultipartUpload(abortCtx, &awsS3.AbortMultipartUploadInput{
			Bucket:   aws.String(dstBucket),
			Key:      aws.String(object.Key),
			UploadId: aws.String(uploadID),
		})
		cancel()
		if abortErr != nil {
			zlogger.Logger.Warn().Err(abortErr).Str("uploadId", uploadID).Msg("could not abort multipart copy")
		}
		return fmt.Errorf("multipart copy of %v/%v to %v: %w", srcBucket, object.Key, dstBucket, err)
	}
	return nil
}

func (a *AwsClient) copyParts(ctx context.Context, client S3API, srcBucket, dstBucket string, object *ObjectMeta, uploadID string) ([]awsTypes.CompletedPart, error) {
	partSize := a.multipart.partSizeFor(object.Size)
	source := copySource(srcBucket, object.Key)

	var parts []awsTypes.CompletedPart
	partNumber := int32(1)
	for offset := int64(0); offset < object.Size; offset += partSize {
		end := offset + partSize - 1
		if end >= object.Size {
			end = object.Size - 1
		}

		out, err := client.UploadPartCopy(ctx, &awsS3.UploadPartCopyInput{
			Bucket:          aws.String(dstBucket),
			Key:             aws.String(object.Key),
			CopySource:      aws.String(source),
			CopySourceRange: aws.String(fmt.Sprintf("bytes=%d-%d", offset, end)),
			UploadId:        aws.String(uploadID),
			PartNumber:      aws.Int32(partNumber),
		})
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", partNumber, err)
		}

		var etag *string
		if out.CopyPartResult != nil {
			etag = out.CopyPartResult.ETag
		}
		parts = append(parts, awsTypes.CompletedPart{
			ETag:       etag,
			PartNumber: aws.Int32(partNumber),
		})
		partNumber++
	}
	return parts, nil
}
