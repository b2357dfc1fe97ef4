// Package middleware holds the gin middleware shared by the catalog routes.
package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Humphrey-He/prodcat/internal/auth"
	"github.com/Humphrey-He/prodcat/pkg/cache"
	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey = "request_id"
	principalKey = "principal"
)

// RequestID reuses the caller's X-Request-ID or assigns a new uuid. The id
// is echoed in the response and attached to the request logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		l := log.Logger.With().Str(requestIDKey, id).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID, "" when absent.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger returns a middleware that logs one event per request.
// Server errors log at error level, client errors at warn.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		path := c.Request.URL.Path

		// Process request
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		l := zerolog.Ctx(c.Request.Context())
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Warn()
		default:
			event = l.Info()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

// CacheMetrics returns a middleware that adds cache metrics to the response
// headers. The headers are written before the handler so they survive a
// body that is already flushed. Caches implementing cache.CounterReader
// only report hits and misses, so no request pays for a key scan.
func CacheMetrics(cacheInstance cache.ICache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cr, ok := cacheInstance.(cache.CounterReader); ok {
			writeCounterHeaders(c, cr.Counters())
			c.Next()
			return
		}

		stats, err := cacheInstance.Stats(c.Request.Context())
		if err == nil {
			writeCounterHeaders(c, *stats)
			c.Header("X-Cache-Entries", fmt.Sprintf("%d", stats.EntryCount))
			c.Header("X-Cache-Size", fmt.Sprintf("%d", stats.Size))
		}
		c.Next()
	}
}

func writeCounterHeaders(c *gin.Context, stats cache.Stats) {
	c.Header("X-Cache-Hits", fmt.Sprintf("%d", stats.Hits))
	c.Header("X-Cache-Misses", fmt.Sprintf("%d", stats.Misses))
	c.Header("X-Cache-Hit-Ratio", fmt.Sprintf("%.2f", stats.HitRatio()))
}

// Authorize rejects requests without a valid bearer token (401) or whose
// token lacks the required role (403).
func Authorize(v *auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, fmt.Errorf("%w: missing bearer token", catalogerrors.ErrUnauthorized))
			return
		}

		p, err := v.Validate(token)
		if err != nil {
			abort(c, err)
			return
		}
		if err := v.Authorize(p); err != nil {
			abort(c, err)
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// GetPrincipal returns the caller authenticated by Authorize.
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok
}

func abort(c *gin.Context, err error) {
	status := catalogerrors.HTTPStatus(err)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", `Bearer`)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
