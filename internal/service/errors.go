package service

import "errors"

var (
	ErrUnknownOperation  = errors.New("unknown sync operation")
	ErrUnknownStrategy   = errors.New("unknown resolution strategy")
	ErrEmptySnapshot     = errors.New("conflict has no secondary snapshot")
	ErrMergedIDMismatch  = errors.New("merged row id does not match the conflict record id")
	ErrTableNotEnrolled  = errors.New("table is not enrolled for sync")
	ErrInvalidConflictID = errors.New("invalid conflict id")

	ErrVersionIsNotSpecified   = errors.New("app version is not specified")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrAuthDisabled            = errors.New("operator auth is disabled")
)
