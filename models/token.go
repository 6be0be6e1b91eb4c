package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a JWT issued to an operator of the sync API.
//
// It embeds [jwt.Token] for signing and parsing and [jwt.RegisteredClaims]
// for the standard claim set. Operator carries the "sub" claim.
type Token struct {
	*jwt.Token `json:"-"`

	jwt.RegisteredClaims

	// SignedString is the compact JWS form of the token.
	SignedString string `json:"-"`

	// Operator is the subject the token was issued to.
	Operator string `json:"-"`
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}
