package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid access token")

// TokenVerifier проверяет access токены, выпущенные сервисом аутентификации.
type TokenVerifier struct {
	accessSecret []byte
}

func NewTokenVerifier(accessSecret string) *TokenVerifier {
	return &TokenVerifier{accessSecret: []byte(accessSecret)}
}

// ParseAccess извлекает пользователя и роль из клеймов sub и role.
func (v *TokenVerifier) ParseAccess(token string) (Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.accessSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Actor{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Actor{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(sub)
	if err != nil || userID == uuid.Nil {
		return Actor{}, ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	return NewActor(userID, role), nil
}
