// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"cart/config"
	"cart/internal/domain/service"
)

// jwtService validates access tokens with the shared HMAC secret. Token
// issuance lives in the User service; this side only verifies.
type jwtService struct {
	accessSecret string
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.SecretKey.Access == "" {
		return nil, errors.New("jwt access secret must be provided")
	}

	return &jwtService{accessSecret: cfg.SecretKey.Access}, nil
}

// ValidateToken checks the validity of a token string against the access secret.
func (s *jwtService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(s.accessSecret), nil
	})
}
