package service

import (
	"errors"
	"fmt"
)

// Code classifies failures returned to external callers.
type Code string

const (
	CodeUnauthenticated    Code = "unauthenticated"
	CodeInvalidArgument    Code = "invalid_argument"
	CodeNotFound           Code = "not_found"
	CodePermissionDenied   Code = "permission_denied"
	CodeFailedPrecondition Code = "failed_precondition"
	CodeResourceExhausted  Code = "resource_exhausted"
	CodeInternal           Code = "internal"
)

// Error is a classified error. Err, when set, is the underlying cause and
// takes part in errors.Is / errors.As.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Err: err}
}

func errorf(code Code, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{Code: code, Message: err.Error(), Err: errors.Unwrap(err)}
}

// CodeOf returns the classification of err, or CodeInternal for anything
// that is not an *Error.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}

var (
	ErrUnauthenticated       = errors.New("authentication required")
	ErrEmptyItemID           = errors.New("item id is required")
	ErrItemNotFound          = errors.New("item not found")
	ErrNotOwner              = errors.New("item belongs to another user")
	ErrAlreadyPosted         = errors.New("item has already been posted")
	ErrAlreadyProcessing     = errors.New("item is already being published")
	ErrNotManual             = errors.New("item is not marked for manual publishing")
	ErrLockLost              = errors.New("item was claimed by another publish attempt")
	ErrMediaArity            = errors.New("media handle count out of range")
	ErrMediaNotFound         = errors.New("media object not found in storage")
	ErrNoCredentials         = errors.New("account credentials not found")
	ErrIncompleteCredentials = errors.New("account credentials are incomplete")
	ErrAccountOwner          = errors.New("account owner does not match item author")
	ErrTooManyMedia          = errors.New("an item can carry at most 4 attachments")
	ErrInvalidStatus         = errors.New("status change not allowed")
	ErrItemLocked            = errors.New("item is locked by a publish attempt")
	ErrEmptyGroupName        = errors.New("group name is required")
	ErrNoLegacyRecord        = errors.New("no legacy credential record for this user")
	ErrAppKeyMissing         = errors.New("application key pair is not configured")
	ErrNoFiles               = errors.New("at least one file is required")
	ErrAccountNotFound       = errors.New("account not found")
	ErrSlotCountMismatch     = errors.New("not enough free slots for the batch")
)
