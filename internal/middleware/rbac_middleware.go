package middleware

import (
	"net/http"

	"people-desk/internal/identity"
	"people-desk/internal/rbac"
	"people-desk/internal/shared/apperror"
	"people-desk/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService is satisfied by rbac.Service.
type RBACService interface {
	Enforce(req rbac.EnforceRequest) (bool, error)
}

// RBACAuthorize must run after AuthMiddleware.
func RBACAuthorize(service RBACService, capability rbac.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identity.FromGin(c)
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing auth context")
			return
		}

		allowed, err := service.Enforce(rbac.EnforceRequest{
			Role:     id.Role,
			Resource: capability.Resource,
			Action:   capability.Action,
		})
		if err != nil {
			response.AbortError(c, http.StatusInternalServerError, apperror.CodeInternalError, "authorization check failed")
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden,
				apperror.ErrForbidden.Message,
				gin.H{"required": capability.String(), "role": id.Role.String()},
			)
			c.Abort()
			return
		}
		c.Next()
	}
}
