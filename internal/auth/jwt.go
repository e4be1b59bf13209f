package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims carried by a dashboard access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateDashboardToken issues a token granting access to the dashboard
// API. Tokens expire after 24 hours.
func GenerateDashboardToken(secret []byte) (string, error) {
	claims := &Claims{
		Role: "dashboard",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a dashboard token and returns its claims.
func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
