package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/javajoker/storefront-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResolveLang(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"zh-TW,zh;q=0.9,en;q=0.8", "zh_TW"},
		{"zh-Hant", "zh_TW"},
		{"en-GB;q=0.8", "en"},
		{"fr-FR", "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveLang(tt.header, "en"), tt.header)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(0.001), 1)
	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, req).Code)

	other := httptest.NewRequest("GET", "/", nil)
	other.RemoteAddr = "203.0.113.7:4000"
	assert.Equal(t, http.StatusOK, serve(r, other).Code)

	limiter.cleanup(time.Now().Add(visitorIdleTimeout + time.Second))
	limiter.mtx.Lock()
	assert.Empty(t, limiter.visitors)
	limiter.mtx.Unlock()
}

func TestAdminRequired(t *testing.T) {
	hash, err := utils.HashToken("secret-token")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", AdminRequired(hash), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/disabled", AdminRequired(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest("GET", "/admin", nil)
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req.Header.Set(AdminTokenHeader, "wrong")
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req.Header.Set(AdminTokenHeader, "secret-token")
	assert.Equal(t, http.StatusNoContent, serve(r, req).Code)

	disabled := httptest.NewRequest("GET", "/disabled", nil)
	disabled.Header.Set(AdminTokenHeader, "secret-token")
	assert.Equal(t, http.StatusForbidden, serve(r, disabled).Code)
}

func TestSessionMiddleware(t *testing.T) {
	utils.SetJWTSecret("middleware-test")
	sessionID := uuid.New()
	token, _, err := utils.GenerateSessionToken(sessionID, "zh_TW", 1)
	require.NoError(t, err)

	var seen string
	handler := func(c *gin.Context) {
		seen, _ = utils.GetSessionIDFromContext(c)
		c.Status(http.StatusOK)
	}

	r := gin.New()
	r.GET("/required", SessionRequired(), handler)
	r.GET("/optional", OptionalSession(), handler)

	req := httptest.NewRequest("GET", "/required", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req.Header.Set("Authorization", "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
	assert.Equal(t, sessionID.String(), seen)

	seen = ""
	optional := httptest.NewRequest("GET", "/optional", nil)
	optional.Header.Set("Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusOK, serve(r, optional).Code)
	assert.Empty(t, seen)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest("GET", "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
