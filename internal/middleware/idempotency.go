package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"people-desk/internal/identity"
	"people-desk/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const idempotencyLockTTL = 30 * time.Second

// Idempotency replays the stored response for a repeated Idempotency-Key and rejects a duplicate
// that arrives while the first request is still running. The handler releases
// idempotency_lock_key and stores its response under idempotency_cache_key.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), idempotencyOwner(c), idempKey)
		lockKey := cacheKey + ":lock"

		if val, err := rdb.Get(c.Request.Context(), cacheKey).Result(); err == nil {
			var cached any
			if json.Unmarshal([]byte(val), &cached) == nil {
				c.Header("Idempotent-Replay", "true")
				response.Success(c, http.StatusOK, cached, nil)
				c.Abort()
				return
			}
		}

		isNew, err := rdb.SetNX(c.Request.Context(), lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			// Without redis the request runs unprotected.
			c.Next()
			return
		}
		if !isNew {
			response.AbortError(c, http.StatusConflict, "PROCESSING", "a request with this Idempotency-Key is still being processed")
			return
		}

		c.Set("idempotency_cache_key", cacheKey)
		c.Set("idempotency_lock_key", lockKey)

		c.Next()
	}
}

// idempotencyOwner scopes a key to its caller. Guests have no user id, so they
// are told apart by the email in their token.
func idempotencyOwner(c *gin.Context) string {
	id, ok := identity.FromGin(c)
	if !ok {
		return "anon:" + c.ClientIP()
	}
	if !id.IsGuest() {
		return id.UserIDString()
	}
	if email := strings.ToLower(strings.TrimSpace(id.Email)); email != "" {
		return "guest:" + email
	}
	return "guest-ip:" + c.ClientIP()
}
