package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"docintake/internal/config"
)

var (
	// ErrMissingToken is returned when no bearer credential is present.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when a credential fails verification.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Verifier resolves a bearer credential into a stable user identifier.
type Verifier interface {
	Verify(token string) (string, error)
}

// JWTVerifier verifies HS256 tokens. The subject claim is the user id.
type JWTVerifier struct {
	secret []byte
	opts   []jwt.ParserOption
}

// NewJWTVerifier builds a verifier from config. Issuer and audience are
// checked only when configured.
func NewJWTVerifier(cfg config.AuthConfig) (*JWTVerifier, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: jwt secret is required", config.ErrConfiguration)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &JWTVerifier{secret: []byte(cfg.JWTSecret), opts: opts}, nil
}

// Verify parses and validates token and returns its subject.
func (v *JWTVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", fmt.Errorf("%w: subject is empty", ErrInvalidToken)
	}
	return sub, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
