package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// authService issues and validates operator tokens. With an empty sign key
// the operator API runs unauthenticated and Enabled reports false.
type authService struct {
	tokenSignKey  string
	tokenIssuer   string
	tokenDuration time.Duration

	logger *logger.Logger
}

// NewAuthService returns the operator token service. With an empty
// TokenSignKey in cfg, auth is disabled and every request is let through.
func NewAuthService(cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		tokenSignKey:  cfg.TokenSignKey,
		tokenIssuer:   cfg.TokenIssuer,
		tokenDuration: cfg.TokenDuration,
		logger:        logger,
	}
}

// Enabled reports whether operator tokens are required.
func (a *authService) Enabled() bool {
	return a.tokenSignKey != ""
}

// CreateToken signs a token for operator valid for the configured TTL.
func (a *authService) CreateToken(ctx context.Context, operator string) (models.Token, error) {
	if !a.Enabled() {
		return models.Token{}, ErrAuthDisabled
	}

	token, err := utils.GenerateOperatorToken(a.tokenIssuer, operator, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}

// ParseToken normalises every validation failure to ErrTokenIsExpiredOrInvalid.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		logger.FromContextOr(ctx, a.logger).Debug().Err(err).
			Str("func", "authService.ParseToken").
			Msg("operator token rejected")
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}
