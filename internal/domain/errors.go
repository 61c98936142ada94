package domain

import (
	"errors"
	"fmt"
)

// DomainError carries a stable machine-readable code alongside a message.
// Two DomainErrors match under errors.Is when their codes are equal.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

const (
	ErrCodeInvalidRange           = "INVALID_RANGE"
	ErrCodeOrderNotFound          = "ORDER_NOT_FOUND"
	ErrCodeNotEligible            = "NOT_ELIGIBLE"
	ErrCodeInvalidItems           = "INVALID_ITEMS"
	ErrCodeDuplicateOpenRequest   = "DUPLICATE_OPEN_REQUEST"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
	ErrCodeMissingFeeDescription  = "MISSING_FEE_DESCRIPTION"
	ErrCodeMissingInspectionNotes = "MISSING_INSPECTION_NOTES"
	ErrCodeConflictRetry          = "CONFLICT_RETRY"
	ErrCodeUpstreamTimeout        = "UPSTREAM_TIMEOUT"
	ErrCodeInvalidArgument        = "INVALID_ARGUMENT"
	ErrCodeRequestNotFound        = "REQUEST_NOT_FOUND"
	ErrCodeForbidden              = "FORBIDDEN"
)

var (
	ErrInvalidRange           = &DomainError{Code: ErrCodeInvalidRange, Message: "rental end date is before start date"}
	ErrOrderNotFound          = &DomainError{Code: ErrCodeOrderNotFound, Message: "rental order not found"}
	ErrNotEligible            = &DomainError{Code: ErrCodeNotEligible, Message: "rental order is not eligible for return"}
	ErrInvalidItems           = &DomainError{Code: ErrCodeInvalidItems, Message: "invalid return items"}
	ErrDuplicateOpenRequest   = &DomainError{Code: ErrCodeDuplicateOpenRequest, Message: "an open return request already exists for this order"}
	ErrInvalidTransition      = &DomainError{Code: ErrCodeInvalidTransition, Message: "return status transition not allowed"}
	ErrMissingFeeDescription  = &DomainError{Code: ErrCodeMissingFeeDescription, Message: "fee description is required when additional fees are charged"}
	ErrMissingInspectionNotes = &DomainError{Code: ErrCodeMissingInspectionNotes, Message: "inspection notes must be provided"}
	ErrConflictRetry          = &DomainError{Code: ErrCodeConflictRetry, Message: "return request was modified concurrently"}
	ErrUpstreamTimeout        = &DomainError{Code: ErrCodeUpstreamTimeout, Message: "upstream call timed out"}
	ErrInvalidArgument        = &DomainError{Code: ErrCodeInvalidArgument, Message: "invalid argument"}
	ErrRequestNotFound        = &DomainError{Code: ErrCodeRequestNotFound, Message: "return request not found"}
	ErrForbidden              = &DomainError{Code: ErrCodeForbidden, Message: "operation not permitted for this actor"}
)

func NewInvalidItemsError(msg string) error {
	return &DomainError{Code: ErrCodeInvalidItems, Message: msg}
}

func NewInvalidTransitionError(from, to ReturnStatus) error {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot move return request from %s to %s", from, to),
	}
}

func NewNotEligibleError(msg string) error {
	return &DomainError{Code: ErrCodeNotEligible, Message: msg}
}

func NewInvalidArgumentError(msg string) error {
	return &DomainError{Code: ErrCodeInvalidArgument, Message: msg}
}

// CodeOf returns the DomainError code carried by err, or "" if there is none.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsTransient reports whether retrying the same call may succeed.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConflictRetry) || errors.Is(err, ErrUpstreamTimeout)
}
