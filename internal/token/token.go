package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/comphility/backend/internal/models"
)

var ErrExpired = errors.New("token expired")

// Claims is the identity embedded in a session token. Downstream handlers
// read these fields instead of hitting the store, so they can be stale
// relative to concurrent admin edits until the token is reissued.
type Claims struct {
	UserID uint
	Name   string
	Email  string
	Role   string
}

// Sign issues an HS256 session token carrying the user's identity, valid
// for ttl from now.
func Sign(user *models.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// Parse validates signature and expiry and returns the embedded claims.
func Parse(raw string, secret []byte) (*Claims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	mc, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return nil, errors.New("invalid token claims")
	}

	sub, ok := mc["sub"].(float64)
	if !ok {
		return nil, errors.New("token missing subject")
	}
	role, _ := mc["role"].(string)
	name, _ := mc["name"].(string)
	email, _ := mc["email"].(string)

	return &Claims{
		UserID: uint(sub),
		Name:   name,
		Email:  email,
		Role:   role,
	}, nil
}
