package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"book-rental-backend/internal/domain"
	"book-rental-backend/internal/logger"
)

var codeByDomain = map[string]codes.Code{
	domain.ErrCodeInvalidRange:           codes.InvalidArgument,
	domain.ErrCodeInvalidItems:           codes.InvalidArgument,
	domain.ErrCodeInvalidArgument:        codes.InvalidArgument,
	domain.ErrCodeMissingFeeDescription:  codes.InvalidArgument,
	domain.ErrCodeMissingInspectionNotes: codes.InvalidArgument,
	domain.ErrCodeOrderNotFound:          codes.NotFound,
	domain.ErrCodeRequestNotFound:        codes.NotFound,
	domain.ErrCodeNotEligible:            codes.FailedPrecondition,
	domain.ErrCodeInvalidTransition:      codes.FailedPrecondition,
	domain.ErrCodeDuplicateOpenRequest:   codes.AlreadyExists,
	domain.ErrCodeConflictRetry:          codes.Aborted,
	domain.ErrCodeUpstreamTimeout:        codes.DeadlineExceeded,
	domain.ErrCodeForbidden:              codes.PermissionDenied,
}

// toStatus converts a service error into a gRPC status error. The domain
// code is kept as the message prefix so clients can branch on it.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		if c, ok := codeByDomain[de.Code]; ok {
			return status.Error(c, de.Error())
		}
	}
	logger.Error("Unhandled error in gRPC handler", "error", err)
	return status.Error(codes.Internal, "internal error")
}
