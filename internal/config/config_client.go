package config

import (
	"fmt"
	"time"
)

// Client defaults.
const (
	DefaultClientAddress = "http://localhost:8080"
	DefaultClientTimeout = 10 * time.Second
)

// ClientConfig configures mmudzictl, the operator command-line client.
// Values come from MMUDZI_* environment variables; command-line flags
// applied by the caller override them.
type ClientConfig struct {
	// Address is the base URL of the operator API.
	// Env: MMUDZI_ADDRESS
	Address string `env:"ADDRESS"`

	// RequestTimeout bounds one API call.
	// Env: MMUDZI_TIMEOUT
	RequestTimeout time.Duration `env:"TIMEOUT"`

	// Token is the bearer token sent with every request.
	// Env: MMUDZI_TOKEN
	Token string `env:"TOKEN"`

	// TokenSignKey and TokenIssuer let `mmudzictl token` mint tokens
	// locally for an operator.
	// Env: MMUDZI_TOKEN_SIGN_KEY, MMUDZI_TOKEN_ISSUER
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`
	TokenIssuer  string `env:"TOKEN_ISSUER"`
}

type clientEnv struct {
	Client ClientConfig `envPrefix:"MMUDZI_"`
}

// GetClientConfig loads the client configuration from the environment and
// fills defaults.
func GetClientConfig() (*ClientConfig, error) {
	var e clientEnv
	if err := parseEnv(&e); err != nil {
		return nil, fmt.Errorf("error get client config: %w", err)
	}

	cfg := &e.Client
	cfg.ApplyDefaults()

	return cfg, nil
}

// ApplyDefaults fills zero fields of cfg.
func (cfg *ClientConfig) ApplyDefaults() {
	if cfg.Address == "" {
		cfg.Address = DefaultClientAddress
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultClientTimeout
	}
	if cfg.TokenIssuer == "" {
		cfg.TokenIssuer = DefaultTokenIssuer
	}
}

// Validate reports whether cfg can be used to reach the API.
func (cfg *ClientConfig) Validate() error {
	return cfg.validate()
}
