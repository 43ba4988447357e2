package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateAdminJWT émet un token HS256 avec le rôle admin, valable 24h
func GenerateAdminJWT(secret, email string) (string, error) {
	claims := jwt.MapClaims{
		"email": email,
		"role":  "admin",
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
