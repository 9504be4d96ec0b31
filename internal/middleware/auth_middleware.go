package middleware

import (
	"errors"
	"strings"

	autherrors "people-desk/internal/auth/errors"
	"people-desk/internal/auth/token"
	"people-desk/internal/identity"
	"people-desk/internal/shared/apperror"
	"people-desk/internal/shared/contextutil"
	"people-desk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware accepts a bearer token or the access_token cookie and stores the caller's Identity.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}
		tokenString = strings.TrimSpace(tokenString)

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			errObj := autherrors.ErrTokenNotFound
			response.AbortError(c, errObj.HTTPStatus, errObj.Code, errObj.Message)
			return
		}

		id, err := token.Parse(secret, tokenString)
		if err != nil {
			errObj := autherrors.ErrInvalidToken
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				errObj = appErr
			}
			response.AbortError(c, errObj.HTTPStatus, errObj.Code, errObj.Message)
			return
		}

		c.Set(identity.GinKey, id)
		c.Set("user_id", id.UserIDString())
		c.Set("role", id.Role.String())

		ctx := identity.WithContext(c.Request.Context(), id)
		ctx = contextutil.WithUserID(ctx, id.UserIDString())
		logger := contextutil.GetLogger(ctx, nil)
		ctx = contextutil.WithLogger(ctx, logger.With(zap.String("user_id", id.UserIDString())))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
