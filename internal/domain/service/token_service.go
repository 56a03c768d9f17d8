package service

import "github.com/golang-jwt/jwt/v5"

// TokenService validates access tokens issued by the User service. The cart
// service never issues tokens itself.
type TokenService interface {
	ValidateToken(tokenString string) (*jwt.Token, error)
}
