package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"people-desk/internal/auth/token"
	"people-desk/internal/identity"
	"people-desk/internal/middleware"
	"people-desk/internal/rbac"
	"people-desk/internal/rbac/infra"
	"people-desk/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const secret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newRBAC(t *testing.T) rbac.Service {
	t.Helper()
	enforcer, err := infra.NewEnforcer()
	assert.NoError(t, err)
	svc, err := rbac.NewService(enforcer, rbac.DefaultPolicy)
	assert.NoError(t, err)
	return svc
}

func issue(t *testing.T, id identity.Identity) string {
	t.Helper()
	raw, _, err := token.Issue(secret, id, time.Hour, time.Now())
	assert.NoError(t, err)
	return raw
}

func TestAuthMiddleware(t *testing.T) {
	uid := uuid.New()

	router := gin.New()
	router.Use(middleware.ContextLogger(zap.NewNop()))
	router.GET("/p", middleware.AuthMiddleware(secret), func(c *gin.Context) {
		id, ok := identity.FromContext(c.Request.Context())
		assert.True(t, ok)
		assert.NotEmpty(t, contextutil.GetRequestID(c.Request.Context()))
		c.String(http.StatusOK, id.Role.String()+"|"+id.UserIDString())
	})

	t.Run("success bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, identity.Identity{UserID: &uid, Role: rbac.RoleHR}))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "HR|"+uid.String(), w.Body.String())
	})

	t.Run("success cookie guest", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: issue(t, identity.Identity{Name: "G", Email: "g@x.io", Role: rbac.RoleEmployee})})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "EMPLOYEE|", w.Body.String())
	})

	t.Run("negative missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("negative tampered token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, identity.Identity{UserID: &uid, Role: rbac.RoleHR})+"x")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
	})
}

func TestRBACAuthorize(t *testing.T) {
	svc := newRBAC(t)
	uid := uuid.New()

	router := gin.New()
	router.Use(middleware.AuthMiddleware(secret))
	router.GET("/report", middleware.RBACAuthorize(svc, rbac.CapReport), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name string
		role rbac.Role
		code int
	}{
		{"hr exports", rbac.RoleHR, http.StatusOK},
		{"ceo forbidden", rbac.RoleCEO, http.StatusForbidden},
		{"employee forbidden", rbac.RoleEmployee, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/report", nil)
			req.Header.Set("Authorization", "Bearer "+issue(t, identity.Identity{UserID: &uid, Role: tc.role}))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func asCaller(id identity.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identity.GinKey, id)
		c.Next()
	}
}

func TestIdempotency(t *testing.T) {
	guestA := identity.Identity{Name: "Guest A", Email: "A@x.io", Role: rbac.RoleEmployee}
	guestB := identity.Identity{Name: "Guest B", Email: "b@x.io", Role: rbac.RoleEmployee}

	t.Run("success replays cached response", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		router := gin.New()
		router.POST("/leaves", asCaller(guestA), middleware.Idempotency(rdb), func(c *gin.Context) {
			t.Fatal("handler must not run on replay")
		})

		mock.ExpectGet("idemp:/leaves:guest:a@x.io:k1").SetVal(`{"id":"abc"}`)

		req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
		req.Header.Set("Idempotency-Key", "k1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get("Idempotent-Replay"))
		assert.Contains(t, w.Body.String(), `"id":"abc"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success first request takes lock", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		router := gin.New()
		router.POST("/leaves", asCaller(guestA), middleware.Idempotency(rdb), func(c *gin.Context) {
			assert.Equal(t, "idemp:/leaves:guest:a@x.io:k2:lock", c.GetString("idempotency_lock_key"))
			c.Status(http.StatusCreated)
		})

		mock.ExpectGet("idemp:/leaves:guest:a@x.io:k2").RedisNil()
		mock.ExpectSetNX("idemp:/leaves:guest:a@x.io:k2:lock", "locked", 30*time.Second).SetVal(true)

		req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
		req.Header.Set("Idempotency-Key", "k2")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success stored user keyed by user id", func(t *testing.T) {
		uid := uuid.New()
		rdb, mock := redismock.NewClientMock()
		router := gin.New()
		router.POST("/leaves", asCaller(identity.Identity{UserID: &uid, Email: "a@x.io", Role: rbac.RoleEmployee}),
			middleware.Idempotency(rdb), func(c *gin.Context) {
				c.Status(http.StatusCreated)
			})

		mock.ExpectGet("idemp:/leaves:" + uid.String() + ":k1").RedisNil()
		mock.ExpectSetNX("idemp:/leaves:"+uid.String()+":k1:lock", "locked", 30*time.Second).SetVal(true)

		req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
		req.Header.Set("Idempotency-Key", "k1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative guests sharing a key do not see each other", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		var current identity.Identity
		reached := 0
		router := gin.New()
		router.POST("/leaves",
			func(c *gin.Context) {
				c.Set(identity.GinKey, current)
				c.Next()
			},
			middleware.Idempotency(rdb),
			func(c *gin.Context) {
				reached++
				c.JSON(http.StatusCreated, gin.H{"name": current.Name})
			},
		)

		mock.ExpectGet("idemp:/leaves:guest:a@x.io:same").SetVal(`{"name":"Guest A"}`)
		mock.ExpectGet("idemp:/leaves:guest:b@x.io:same").RedisNil()
		mock.ExpectSetNX("idemp:/leaves:guest:b@x.io:same:lock", "locked", 30*time.Second).SetVal(true)

		current = guestA
		req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
		req.Header.Set("Idempotency-Key", "same")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "true", w.Header().Get("Idempotent-Replay"))

		current = guestB
		req = httptest.NewRequest(http.MethodPost, "/leaves", nil)
		req.Header.Set("Idempotency-Key", "same")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get("Idempotent-Replay"))
		assert.Contains(t, w.Body.String(), `"name":"Guest B"`)
		assert.NotContains(t, w.Body.String(), "Guest A")
		assert.Equal(t, 1, reached)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative duplicate in flight", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		router := gin.New()
		router.POST("/leaves", asCaller(guestA), middleware.Idempotency(rdb), func(c *gin.Context) {
			t.Fatal("handler must not run while locked")
		})

		mock.ExpectGet("idemp:/leaves:guest:a@x.io:k3").RedisNil()
		mock.ExpectSetNX("idemp:/leaves:guest:a@x.io:k3:lock", "locked", 30*time.Second).SetVal(false)

		req := httptest.NewRequest(http.MethodPost, "/leaves", nil)
		req.Header.Set("Idempotency-Key", "k3")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(middleware.CORS([]string{"http://localhost:5173/"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("success allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("success preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		req.Header.Set("Access-Control-Request-Headers", "authorization")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "authorization")
	})

	t.Run("success no origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("negative unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRateLimitByIP(t *testing.T) {
	router := gin.New()
	router.GET("/login", middleware.RateLimitByIP(0.001, 1), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
