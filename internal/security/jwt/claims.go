package jwtutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims carries the member's token version so a logout-all can
// invalidate tokens that have not expired yet.
type AccessClaims struct {
	TokenVersion int `json:"tv"`
	jwt.RegisteredClaims
}

func NewAccessClaims(memberID, jti string, tokenVersion int, now time.Time, ttl time.Duration) AccessClaims {
	return AccessClaims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
