// Package token signs and verifies the HS256 bearer tokens that carry an Identity.
package token

import (
	"errors"
	"strings"
	"time"

	autherrors "people-desk/internal/auth/errors"
	"people-desk/internal/identity"
	"people-desk/internal/rbac"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims omit user_id for guests.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func Issue(secret string, id identity.Identity, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID: id.UserIDString(),
		Name:   id.Name,
		Email:  id.Email,
		Role:   id.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies raw and rebuilds the Identity. Only EMPLOYEE tokens may omit user_id.
func Parse(secret, raw string) (identity.Identity, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return identity.Identity{}, autherrors.ErrTokenExpired
		}
		return identity.Identity{}, autherrors.ErrInvalidToken
	}
	if !tok.Valid {
		return identity.Identity{}, autherrors.ErrInvalidToken
	}

	role, err := rbac.ParseRole(claims.Role)
	if err != nil {
		return identity.Identity{}, autherrors.ErrInvalidToken
	}

	id := identity.Identity{
		Name:  claims.Name,
		Email: strings.ToLower(strings.TrimSpace(claims.Email)),
		Role:  role,
	}
	if claims.UserID == "" {
		if role != rbac.RoleEmployee {
			return identity.Identity{}, autherrors.ErrInvalidToken
		}
		return id, nil
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return identity.Identity{}, autherrors.ErrInvalidToken
	}
	id.UserID = &uid
	return id, nil
}
