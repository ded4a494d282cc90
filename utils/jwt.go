package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ownerTokenIssuer = "cafe-ordering"

// OwnerClaims carries the opaque owner identity in the subject.
type OwnerClaims struct {
	jwt.RegisteredClaims
}

func GenerateOwnerToken(secret []byte, ownerID string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("owner token secret is empty")
	}
	if ownerID == "" {
		return "", errors.New("owner id is empty")
	}
	now := time.Now()
	claims := &OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			Issuer:    ownerTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseOwnerToken validates an HS256 owner token and returns the owner id.
func ParseOwnerToken(secret []byte, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OwnerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(ownerTokenIssuer))
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*OwnerClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}
