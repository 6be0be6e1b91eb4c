package client

import "errors"

var (
	ErrInvalidFormat    = errors.New("invalid output format")
	ErrInvalidID        = errors.New("conflict id must be a positive integer")
	ErrSignKeyMissing   = errors.New("token sign key is not configured (env MMUDZI_TOKEN_SIGN_KEY)")
	ErrInvalidMergedRow = errors.New("merged row must be a JSON object")
)
