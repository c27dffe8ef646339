package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserClaims are the claims carried by an access token
type UserClaims struct {
	Role      string `json:"role"`
	Superuser bool   `json:"su,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim
func (c *UserClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// GenerateToken signs an HS256 access token for the user
func GenerateToken(secret []byte, userID uuid.UUID, role string, superuser bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		Role:      role,
		Superuser: superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the claims
func ValidateToken(secret []byte, tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.Role == "" {
		return nil, errors.New("role not found in token")
	}
	return claims, nil
}
