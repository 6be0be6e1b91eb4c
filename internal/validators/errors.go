package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidTable        = errors.New("invalid table name")
	ErrInvalidRecordID     = errors.New("record id is required")
	ErrInvalidOperation    = errors.New("invalid sync operation")
	ErrInvalidContentHash  = errors.New("content hash is required for inserts and updates")
	ErrInvalidCapturedAt   = errors.New("captured_at is required")
	ErrInvalidStatus       = errors.New("invalid sync status")
	ErrInvalidStrategy     = errors.New("invalid resolution strategy")
	ErrMergedWithoutManual = errors.New("a merged row is only accepted with the manual strategy")
	ErrInvalidColumn       = errors.New("invalid column name")
)
