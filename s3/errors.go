package s3

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	zerrors "github.com/0chain/s3replicate/zErrors"
	"github.com/aws/smithy-go"
)

type httpStatusError interface {
	HTTPStatusCode() int
}

func statusCode(err error) int {
	var respErr httpStatusError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// classifyBucketError maps a HeadBucket failure onto the not-found / access-denied /
// other outcomes. The original error stays in the message.
func classifyBucketError(bucket string, err error) error {
	switch {
	case statusCode(err) == http.StatusNotFound:
		return zerrors.New(zerrors.BucketNotFoundErrCode, fmt.Sprintf("bucket '%v' does not exist", bucket))
	case statusCode(err) == http.StatusForbidden:
		return zerrors.New(zerrors.AccessDeniedErrCode, fmt.Sprintf("access denied to bucket '%v'", bucket))
	}

	switch apiErrorCode(err) {
	case "NotFound", "NoSuchBucket":
		return zerrors.New(zerrors.BucketNotFoundErrCode, fmt.Sprintf("bucket '%v' does not exist", bucket))
	case "Forbidden", "AccessDenied":
		return zerrors.New(zerrors.AccessDeniedErrCode, fmt.Sprintf("access denied to bucket '%v'", bucket))
	}

	return fmt.Errorf("error accessing bucket '%v': %w", bucket, err)
}

var retryableCodes = map[string]struct{}{
	"SlowDown":                               {},
	"Throttling":                             {},
	"ThrottlingException":                    {},
	"RequestLimitExceeded":                   {},
	"TooManyRequestsException":               {},
	"RequestTimeout":                         {},
	"RequestTimeoutException":                {},
	"InternalError":                          {},
	"ServiceUnavailable":                     {},
	"OperationAborted":                       {},
	"PriorRequestNotComplete":                {},
	"ProvisionedThroughputExceededException": {},
}

// IsRetryable reports whether a failed request is worth repeating: throttling,
// server side faults and broken connections. Cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if _, ok := retryableCodes[apiErrorCode(err)]; ok {
		return true
	}

	if code := statusCode(err); code != 0 {
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
