package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Humphrey-He/prodcat/configs"
	"github.com/Humphrey-He/prodcat/internal/auth"
	"github.com/Humphrey-He/prodcat/pkg/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(r, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestLoggerWritesStructuredEvent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	r := gin.New()
	r.Use(RequestID(), RequestLogger())
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/products/9", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	serve(r, req)

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"path":"/products/9"`)
	assert.Contains(t, out, `"status":404`)
}

func TestCacheMetricsHeaders(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(10, time.Minute)
	require.NoError(t, c.Set(ctx, "product:1", []byte("x"), 0))
	_, _, _ = c.Get(ctx, "product:1")
	_, _, _ = c.Get(ctx, "product:2")

	r := gin.New()
	r.Use(CacheMetrics(c))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "1", rec.Header().Get("X-Cache-Hits"))
	assert.Equal(t, "1", rec.Header().Get("X-Cache-Misses"))
	assert.Equal(t, "0.50", rec.Header().Get("X-Cache-Hit-Ratio"))
	assert.Equal(t, "1", rec.Header().Get("X-Cache-Entries"))
	assert.Equal(t, "1", rec.Header().Get("X-Cache-Size"))
}

// counterCache reports counters and counts calls to the full Stats.
type counterCache struct {
	*cache.MemoryCache
	statsCalls int
}

func (c *counterCache) Stats(ctx context.Context) (*cache.Stats, error) {
	c.statsCalls++
	return c.MemoryCache.Stats(ctx)
}

func (c *counterCache) Counters() cache.Stats {
	return cache.Stats{Hits: 3, Misses: 1}
}

func TestCacheMetricsPrefersCounters(t *testing.T) {
	c := &counterCache{MemoryCache: cache.NewMemoryCache(10, time.Minute)}

	r := gin.New()
	r.Use(CacheMetrics(c))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for i := 0; i < 3; i++ {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "3", rec.Header().Get("X-Cache-Hits"))
		assert.Equal(t, "1", rec.Header().Get("X-Cache-Misses"))
		assert.Equal(t, "0.75", rec.Header().Get("X-Cache-Hit-Ratio"))
		assert.Empty(t, rec.Header().Get("X-Cache-Entries"))
	}
	assert.Zero(t, c.statsCalls)
}

func TestAuthorize(t *testing.T) {
	key := strings.Repeat("s", 32)
	cfg := configs.DefaultConfig().Auth
	cfg.Enable = true
	cfg.SigningKey = key
	v, err := auth.NewValidator(cfg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Authorize(v))
	r.GET("/", func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		require.True(t, ok)
		c.String(http.StatusOK, p.Subject)
	})

	token := func(role string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  "ada",
			"iss":  cfg.Issuer,
			"aud":  cfg.Audience,
			"exp":  time.Now().Add(time.Hour).Unix(),
			"role": role,
		}).SignedString([]byte(key))
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"basic scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + token("Reader"), http.StatusForbidden},
		{"admin", "Bearer " + token("Admin"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(r, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
			if tt.want == http.StatusOK {
				assert.Equal(t, "ada", rec.Body.String())
			}
		})
	}
}
