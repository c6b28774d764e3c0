// Package security provides JWT token utilities for the dashboard
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// IssueDashboardToken creates a signed session token for an authenticated
// dashboard login.
func IssueDashboardToken(secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"role": "sysop",
		"jti":  GenerateULID(),
		"iat":  time.Now().UTC().Unix(),
		"exp":  time.Now().UTC().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateDashboardToken validates a dashboard token and returns its claims.
func ValidateDashboardToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if role, _ := claims["role"].(string); role != "sysop" {
		return nil, errors.New("invalid role")
	}
	return claims, nil
}
