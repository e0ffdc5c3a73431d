package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL matches the lifetime of tokens issued by the account service.
const DefaultTokenTTL = 72 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken signs an HS256 token whose subject is the user ID.
// The orders service only validates tokens; this exists for dev tooling and tests.
func GenerateToken(secret []byte, userID int64, ttl time.Duration) (string, error) {
	// 1. Create the claims.
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,              // "sub" (Subject) is the standard claim for User ID
		"exp": now.Add(ttl).Unix(), // Expiry
		"iat": now.Unix(),          // "iat" (Issued At)
	}

	// 2. Sign the token with the shared secret.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates a JWT token string.
// It returns the user ID (subject) if the token is valid.
func ValidateToken(secret []byte, tokenString string) (int64, error) {
	// 1. Parse the token string, accepting HMAC signatures only.
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, errors.Join(ErrInvalidToken, err)
	}

	// 2. Get the user ID ("sub") from the claims.
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	// JSON numbers decode as float64
	userIDFloat, ok := claims["sub"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, errors.Join(ErrInvalidToken, errors.New("invalid subject claim"))
	}
	return int64(userIDFloat), nil
}
