package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims issued by the identity provider.
// Only the subject and email are used here.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// clockSkew tolerated between this service and the provider.
const clockSkew = 30 * time.Second

// JWTManager validates HS256 access tokens signed with the provider's shared secret.
type JWTManager struct {
	secret   []byte
	ttl      time.Duration
	audience string
}

type Option func(*JWTManager)

// WithAudience requires tokens to carry aud (e.g. "authenticated").
func WithAudience(aud string) Option {
	return func(m *JWTManager) { m.audience = aud }
}

// NewJWTManager creates a new JWT manager. ttl only applies to tokens minted
// by GenerateAccessToken.
func NewJWTManager(secret string, ttl time.Duration, opts ...Option) *JWTManager {
	m := &JWTManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateAccessToken mints a token the same shape as the provider's. Used by
// tests and local tooling.
func (m *JWTManager) GenerateAccessToken(userID, email string) (string, error) {
	now := time.Now().UTC()

	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign jwt: %w", err)
	}
	return signed, nil
}

// ParseAndValidate checks signature, expiry, and audience and returns the claims.
func (m *JWTManager) ParseAndValidate(tokenStr string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if m.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(m.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jwt: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("jwt token has no subject")
	}

	return claims, nil
}
