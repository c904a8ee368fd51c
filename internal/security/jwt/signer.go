package jwtutil

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Config struct {
	Secret    []byte
	ClockSkew time.Duration
	AccessTTL time.Duration
}

// Signer issues and verifies HS256 access tokens.
type Signer struct {
	cfg Config
	now func() time.Time
}

func NewSigner(cfg Config) *Signer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	return &Signer{cfg: cfg, now: time.Now}
}

func (s *Signer) AccessTTL() time.Duration { return s.cfg.AccessTTL }

// SignAccess returns (tokenString, jti).
func (s *Signer) SignAccess(memberID string, tokenVersion int) (string, string, error) {
	jti, err := randJTI()
	if err != nil {
		return "", "", err
	}
	claims := NewAccessClaims(memberID, jti, tokenVersion, s.now(), s.cfg.AccessTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	str, err := t.SignedString(s.cfg.Secret)
	return str, jti, err
}

// ParseAccess verifies HS256 signature and leeway, returning claims.
func (s *Signer) ParseAccess(tokenStr string) (*AccessClaims, error) {
	parser := jwt.NewParser(
		jwt.WithLeeway(s.cfg.ClockSkew),
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func randJTI() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
