package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims of a signed chat credential.
type Claims struct {
	User string `json:"user"`
	jwt.RegisteredClaims
}

// TokenConfig holds credential signing configuration. An empty Secret means
// credentials are unsigned and the bare user handle is sent instead.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// TokenSource builds the opaque credential token carried in the handshake
// extension. The original deployment accepts the bare user handle; fronting
// the server with a token check only needs a shared secret configured on
// both sides.
type TokenSource struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenSource builds a token source from configuration.
func NewTokenSource(cfg TokenConfig) *TokenSource {
	return &TokenSource{cfg: cfg, now: time.Now}
}

// Credential returns the token for the given user handle, or an empty string
// when no secret is configured.
func (t *TokenSource) Credential(user string) (string, error) {
	if len(t.cfg.Secret) == 0 {
		return "", nil
	}

	now := t.now()
	claims := Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user,
			Issuer:    t.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// ParseCredential validates a signed credential and returns its claims.
// The client only uses it in tests; servers terminating the handshake use it
// to verify what the client sent.
func ParseCredential(cfg TokenConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid credential claims")
	}
	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return nil, fmt.Errorf("invalid issuer")
	}
	return claims, nil
}
