package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/cheffry/backend/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	iss := auth.NewIssuer("secret", time.Hour)
	token, err := iss.Issue("u1", "a@example.com")
	require.NoError(t, err)
	r := newRouter(AuthMiddleware(iss))

	w := do(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u1"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Basic abc").Code)
}

func TestOptionalAuth(t *testing.T) {
	iss := auth.NewIssuer("secret", time.Hour)
	token, err := iss.Issue("u1", "a@example.com")
	require.NoError(t, err)
	r := newRouter(OptionalAuth(iss))

	assert.JSONEq(t, `{"user_id":"u1"}`, do(r, "bearer "+token).Body.String())
	assert.JSONEq(t, `{"user_id":""}`, do(r, "").Body.String())

	w := do(r, "Bearer garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":""}`, w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(60, 2)
	r := newRouter(l.Middleware())

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// other clients have their own bucket
	assert.True(t, l.Allow("10.0.0.9"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	l := NewIPRateLimiter(60, 1)
	l.ttl = -time.Second
	l.Allow("10.0.0.1")
	l.Cleanup()
	assert.Empty(t, l.clients)
}

func TestRequestIDAndHeaders(t *testing.T) {
	r := newRouter(RequestID(), SecurityHeaders(), RequestLogger())

	w := do(r, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-1", w.Header().Get(RequestIDHeader))
}
