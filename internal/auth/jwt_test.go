package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCredentialWithoutSecretIsEmpty(t *testing.T) {
	req := require.New(t)

	source := NewTokenSource(TokenConfig{})
	token, err := source.Credential("alice")
	req.NoError(err)
	req.Empty(token)
}

func TestCredentialRoundTrip(t *testing.T) {
	req := require.New(t)

	cfg := TokenConfig{
		Secret: []byte("test-secret-change-me"),
		Issuer: "test",
		TTL:    time.Hour,
	}
	source := NewTokenSource(cfg)

	token, err := source.Credential("alice")
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := ParseCredential(cfg, token)
	req.NoError(err)
	req.Equal("alice", claims.User)
	req.Equal("alice", claims.Subject)
	req.Equal("test", claims.Issuer)
}

func TestParseCredentialRejectsWrongSecret(t *testing.T) {
	req := require.New(t)

	cfg := TokenConfig{Secret: []byte("right-secret"), Issuer: "test", TTL: time.Hour}
	token, err := NewTokenSource(cfg).Credential("alice")
	req.NoError(err)

	_, err = ParseCredential(TokenConfig{Secret: []byte("wrong-secret")}, token)
	req.Error(err)
}

func TestParseCredentialRejectsExpired(t *testing.T) {
	req := require.New(t)

	cfg := TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour}
	source := NewTokenSource(cfg)
	source.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := source.Credential("alice")
	req.NoError(err)

	_, err = ParseCredential(cfg, token)
	req.Error(err)
}

func TestParseCredentialRejectsWrongIssuer(t *testing.T) {
	req := require.New(t)

	cfg := TokenConfig{Secret: []byte("test-secret"), Issuer: "other", TTL: time.Hour}
	token, err := NewTokenSource(cfg).Credential("alice")
	req.NoError(err)

	verify := cfg
	verify.Issuer = "expected"
	_, err = ParseCredential(verify, token)
	req.Error(err)
}
