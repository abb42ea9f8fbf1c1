package authUtils

import (
	"fmt"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// tokenLifetime is how long an issued session token stays valid.
const tokenLifetime = 72 * time.Hour

// GenerateAndSetToken signs a session JWT carrying the user's id.
func GenerateAndSetToken(userID string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenLifetime).Unix(),
	})

	return token.SignedString([]byte(secret))
}
