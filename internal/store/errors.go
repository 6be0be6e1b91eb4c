package store

import "errors"

// Sentinel errors returned by stores and repositories. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrConnectivity is returned when a store cannot be reached at all:
	// refused or dropped connections, timeouts, a database that is shutting
	// down. It is fatal to the operation in flight; the arbiter uses it to
	// decide on fallback.
	ErrConnectivity = errors.New("store is unreachable")

	// ErrInvalidIdentifier is returned when a table or column name is not a
	// plain lower-case SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid sql identifier")

	// ErrMissingID is returned by Put when the row has no id column.
	ErrMissingID = errors.New("row has no id")

	// ErrConflictNotFound is returned when a conflict id does not exist.
	ErrConflictNotFound = errors.New("conflict was not found")

	// ErrSyncRecordNotFound is returned when a queue entry id does not exist.
	ErrSyncRecordNotFound = errors.New("sync record was not found")
)

// Low-level database operation errors, wrapped around the driver error.
var (
	// ErrBuildingSQLQuery is returned when constructing a SQL statement fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when an INSERT, UPDATE or DELETE fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning a single result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when iterating a result set fails.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrEncodingSnapshot is returned when a row snapshot cannot be
	// serialized for storage.
	ErrEncodingSnapshot = errors.New("failed to encode row snapshot")
)
