// Package utils provides small helpers shared by the server, the operator
// API and the mmudzictl client: context keys, JSON responses, operator
// tokens, identifiers and the HTTP client wrapper.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// OperatorCtxKey holds the authenticated operator name of an API request.
var OperatorCtxKey = contextKey("operator")

// GetOperatorFromContext returns the operator stored by the auth middleware.
func GetOperatorFromContext(ctx context.Context) (string, bool) {
	operator, ok := ctx.Value(OperatorCtxKey).(string)
	return operator, ok && operator != ""
}
