package security

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(10), 5)

	limiter1 := limiter.GetLimiter("192.168.1.1")
	limiter2 := limiter.GetLimiter("192.168.1.1")
	limiter3 := limiter.GetLimiter("192.168.1.2")

	assert.Same(t, limiter1, limiter2, "same IP shares a limiter")
	assert.NotSame(t, limiter1, limiter3)
	assert.Equal(t, 2, limiter.Len())
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(0.001), 2)

	busy := limiter.GetLimiter("10.0.0.1")
	require.True(t, busy.Allow())
	limiter.GetLimiter("10.0.0.2")

	limiter.mu.Lock()
	removed := limiter.pruneLocked()
	limiter.mu.Unlock()
	assert.Equal(t, 1, removed, "only the idle client is dropped")
	assert.Equal(t, 1, limiter.Len())
	assert.Same(t, busy, limiter.GetLimiter("10.0.0.1"))
}

func TestRateLimiterPrunesAtCapacity(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(1), 1)
	for i := 0; i < maxTrackedClients; i++ {
		limiter.GetLimiter(fmt.Sprintf("client-%d", i))
	}
	require.Equal(t, maxTrackedClients, limiter.Len())

	limiter.GetLimiter("newcomer")
	assert.Equal(t, 1, limiter.Len(), "idle clients are dropped before tracking a new one")
}

func TestDefaultSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()
	require.NotNil(t, config)

	assert.True(t, config.EnableRateLimit)
	assert.Equal(t, 10.0, config.RateLimitPerSecond)
	assert.Equal(t, 20, config.RateLimitBurst)
	assert.True(t, config.EnableCORS)
	assert.Equal(t, []string{"http://localhost:3000"}, config.AllowedOrigins)
	assert.True(t, config.EnableSecurityHeaders)
	assert.Equal(t, int64(1<<20), config.MaxRequestSize)
	assert.True(t, config.EnableRequestID)
}

func newRouter(config *SecurityConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupSecurityMiddleware(router, config)
	router.GET("/api/news", func(c *gin.Context) { c.JSON(http.StatusOK, []string{}) })
	router.GET("/api/news/category/:category", func(c *gin.Context) { c.JSON(http.StatusOK, []string{}) })
	router.POST("/api/categorize/suggest", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestSetupSecurityMiddleware_Headers(t *testing.T) {
	router := newRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupSecurityMiddleware_CORSRejectsUnknownOrigin(t *testing.T) {
	router := newRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSetupSecurityMiddleware_Disabled(t *testing.T) {
	router := newRouter(&SecurityConfig{MaxRequestSize: 1024})

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Request-ID"))
	assert.Empty(t, w.Header().Get("X-Frame-Options"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(NewRateLimiter(rate.Limit(0.001), 2)))
	router.GET("/test", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.8")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestSizeMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestSizeMiddleware(16))
	router.POST("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestInputValidationMiddleware(t *testing.T) {
	router := newRouter(&SecurityConfig{})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"no params", "/api/news", http.StatusOK},
		{"structured params left to handlers", "/api/news?sort_by=title&limit=0&from_date=yesterday", http.StatusOK},
		{"query at limit", "/api/news?q=" + strings.Repeat("a", 500), http.StatusOK},
		{"long query", "/api/news?q=" + strings.Repeat("a", 501), http.StatusBadRequest},
		{"valid category", "/api/news/category/top-stories", http.StatusOK},
		{"invalid category", "/api/news/category/bad_name", http.StatusBadRequest},
		{"long category", "/api/news/category/" + strings.Repeat("a", 51), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusBadRequest {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestSecurityLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	previous := gin.DefaultWriter
	gin.DefaultWriter = &buf
	defer func() { gin.DefaultWriter = previous }()

	router := gin.New()
	router.Use(SecurityLoggingMiddleware())
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("User-Agent", "probe/1.0")
	router.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.Contains(t, line, "method=GET")
	assert.Contains(t, line, "path=/missing")
	assert.Contains(t, line, "status=404")
	assert.Contains(t, line, "user_agent=probe/1.0")
	assert.Contains(t, line, "error=true")
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "203.0.113.1"},
		{"forwarded single", map[string]string{"X-Forwarded-For": " 203.0.113.2 "}, "203.0.113.2"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.3"}, "203.0.113.3"},
		{"client ip", map[string]string{"X-Client-IP": "203.0.113.4"}, "203.0.113.4"},
		{"remote addr", nil, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(c))
		})
	}
}

func TestIsValidCategoryName(t *testing.T) {
	assert.True(t, isValidCategoryName("top-stories"))
	assert.True(t, isValidCategoryName("Sports"))
	assert.False(t, isValidCategoryName(""))
	assert.False(t, isValidCategoryName("world news"))
	assert.False(t, isValidCategoryName("../etc"))
}
