package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"go-parley/internal/infrastructure/identity/port"
)

// JWTIdentity verifies HMAC-signed bearer tokens and extracts the subject
// user id from the "id" claim.
type JWTIdentity struct {
	secret []byte
}

var _ port.Identity = (*JWTIdentity)(nil)

// NewJWTIdentityFromEnv reads the signing secret from JWT_SECRET.
func NewJWTIdentityFromEnv() (*JWTIdentity, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("jwt: JWT_SECRET environment variable is not set")
	}
	return &JWTIdentity{secret: []byte(secret)}, nil
}

func (j *JWTIdentity) Resolve(ctx context.Context, bearer string) (string, error) {
	if bearer == "" {
		return "", port.ErrUnauthorized
	}

	token, err := jwt.Parse(bearer, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil || !token.Valid {
		return "", port.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", port.ErrUnauthorized
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", port.ErrUnauthorized
	}
	return id, nil
}
