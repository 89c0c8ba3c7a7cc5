package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var ErrEmptySecret = errors.New("token: API_SECRET is not set")

// JwtCustomClaim identifies the operator behind an admin API call.
type JwtCustomClaim struct {
	ID   int    `json:"id"`
	Role string `json:"role"`
	jwt.StandardClaims
}

// JwtGenerate signs an HS256 token valid for lifespan.
func JwtGenerate(secret []byte, userID int, role string, lifespan time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:   userID,
		Role: role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(lifespan).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	token, err := t.SignedString(secret)
	if err != nil {
		return "", err
	}
	return token, nil
}

// JwtValidate parses and verifies a token signed with secret.
func JwtValidate(secret []byte, token string) (*JwtCustomClaim, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	parsed, err := jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok || !parsed.Valid {
		return nil, errors.New("token: invalid claims")
	}
	return claims, nil
}
