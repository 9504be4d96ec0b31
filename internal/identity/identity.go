// Package identity carries the authenticated caller through gin and context.Context.
package identity

import (
	"context"

	"people-desk/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GinKey is the gin context key under which the auth middleware stores the Identity.
const GinKey = "identity"

type ctxKey struct{}

// Identity is the caller as established by a validated bearer token.
// UserID is nil for external (guest) employees that have no stored account.
type Identity struct {
	UserID *uuid.UUID
	Name   string
	Email  string
	Role   rbac.Role
}

func (i Identity) IsGuest() bool {
	return i.UserID == nil
}

// UserIDString returns the user id or "" for guests.
func (i Identity) UserIDString() string {
	if i.UserID == nil {
		return ""
	}
	return i.UserID.String()
}

func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

func FromGin(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(GinKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
