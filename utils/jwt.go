package utils

import (
	"errors"
	"time"

	"glowdesk/config"

	"github.com/golang-jwt/jwt"
)

func secretKey() []byte {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		secret = "glowdesk-dev"
	}
	return []byte(secret)
}

// GenerateAdminToken creates a signed JWT for the dashboard operator.
// The token expires after the specified duration.
func GenerateAdminToken(duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  "admin",
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
}

// IsAdminToken validates the token and checks its role claim.
func IsAdminToken(tokenString string) (bool, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return false, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return false, errors.New("invalid token claims")
	}
	return claims["role"] == "admin", nil
}
