package errors

import (
	"errors"

	zerror "github.com/0chain/errors"
)

const (
	MissingCredentialsErrCode = "missing_credentials"
	ClientInitErrCode         = "client_init_failed"
	MissingConfigErrCode      = "missing_config"
	BadConfigErrCode          = "bad_config"
	BucketNotFoundErrCode     = "bucket_not_found"
	AccessDeniedErrCode       = "access_denied"
	ListFailedErrCode         = "list_failed"
	CopyFailedErrCode         = "copy_failed"
	OperationCancelledByUser  = "operation_cancelled_by_user"
)

var (
	ErrMissingCredentials       = zerror.New(MissingCredentialsErrCode, "aws credentials not found")
	ErrOperationCancelledByUser = zerror.New(OperationCancelledByUser, "replication interrupted by user")
)

// New returns a coded error carrying msg.
func New(code, msg string) error {
	return zerror.New(code, msg)
}

// Code returns the code of the first coded error in err's chain, or "".
func Code(err error) string {
	var zerr *zerror.Error
	if errors.As(err, &zerr) {
		return zerr.Code
	}
	return ""
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	return Code(err) == code
}

func IsMissingCredentialsError(err error) bool {
	return hasCode(err, MissingCredentialsErrCode)
}

func IsMissingConfigError(err error) bool {
	return hasCode(err, MissingConfigErrCode)
}

func IsBadConfigError(err error) bool {
	return hasCode(err, BadConfigErrCode)
}

func IsBucketNotFoundError(err error) bool {
	return hasCode(err, BucketNotFoundErrCode)
}

func IsAccessDeniedError(err error) bool {
	return hasCode(err, AccessDeniedErrCode)
}

func IsListFailedError(err error) bool {
	return hasCode(err, ListFailedErrCode)
}

func IsCopyFailedError(err error) bool {
	return hasCode(err, CopyFailedErrCode)
}

func IsCancelledError(err error) bool {
	return hasCode(err, OperationCancelledByUser)
}

// IsFatal reports whether err belongs to the startup tier that must end the run.
func IsFatal(err error) bool {
	switch Code(err) {
	case MissingCredentialsErrCode, ClientInitErrCode, MissingConfigErrCode, BadConfigErrCode:
		return true
	}
	return false
}
