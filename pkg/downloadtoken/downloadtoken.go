// Package downloadtoken issues short-lived signed tokens for photo downloads
// so that blob URLs can be handed to the browser without embedding the page's
// edit secret.
package downloadtoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	signingSecret []byte
	tokenTTL      = 15 * time.Minute
)

type Claims struct {
	PageID  string `json:"pageID"`
	PhotoID string `json:"photoID"`
	jwt.RegisteredClaims
}

func Configure(secret string, ttl time.Duration) {
	signingSecret = []byte(secret)
	if ttl > 0 {
		tokenTTL = ttl
	}
}

func Generate(pageID, photoID uuid.UUID) (string, error) {
	if len(signingSecret) == 0 {
		return "", fmt.Errorf("download tokens not configured")
	}

	now := time.Now()
	claims := Claims{
		PageID:  pageID.String(),
		PhotoID: photoID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
			Subject:   photoID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingSecret)
}

func Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return signingSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid download token")
	}

	return claims, nil
}
