package http

import (
	"context"
	"net/http"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/utils"
)

// auth enforces bearer-token authentication when the auth service is
// enabled and passes every request through otherwise. The operator named
// in the token is stored in the context under [utils.OperatorCtxKey].
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.services.Auth.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, r, "Handler.auth", "unauthorized", ErrEmptyAuthorizationHeader)
			return
		}

		tokenString, err := utils.ParseBearerToken(authHeader)
		if err != nil {
			writeError(w, r, "Handler.auth", "unauthorized", ErrInvalidAuthorizationHeader)
			return
		}

		ctx := r.Context()
		token, err := h.services.Auth.ParseToken(ctx, tokenString)
		if err != nil {
			writeError(w, r, "Handler.auth", "unauthorized", err)
			return
		}

		ctx = context.WithValue(ctx, utils.OperatorCtxKey, token.Operator)
		ctx = logger.FromRequest(r).WithField("operator", token.Operator).WithContext(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
