// Package middleware provides the HTTP middleware of the audit API: request
// ids, request logging, rate limiting and optional bearer authentication.
package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims holds the parsed claims from a validated token.
type JWTClaims struct {
	Subject string
}

// JWTValidator validates a token and returns its claims.
type JWTValidator interface {
	Validate(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// HS256Validator validates tokens signed with a shared HS256 secret.
type HS256Validator struct {
	secret []byte
}

// NewHS256Validator creates a validator for secret.
func NewHS256Validator(secret string) (*HS256Validator, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret)}, nil
}

// Validate verifies the signature and expiry of tokenString and requires a
// subject.
func (v *HS256Validator) Validate(_ context.Context, tokenString string) (*JWTClaims, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}
	claims := &JWTClaims{}
	if sub, ok := raw["sub"].(string); ok {
		claims.Subject = sub
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
