package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims decoded from the externally issued bearer token. The cart service
// never mints tokens; it only verifies them to scope remote-cart sync.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// Session identifies the cart a request operates on. DeviceID scopes the
// local snapshot; Authenticated enables remote-cart sync for the identity
// carried in the bearer token.
type Session struct {
	DeviceID      string
	Authenticated bool
}
