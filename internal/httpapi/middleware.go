package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestID attaches a per-request correlation id, mirroring the
// predecessor's request-scoped logging, generalized with google/uuid
// instead of a counter.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// RequestLogger logs each request at Info with its correlation id, path,
// status, and latency — structured via logrus, matching the ambient
// logging stack the rest of the module uses.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"requestID": c.GetString("requestID"),
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
		}).Info("request handled")
	}
}

// DebugKeyAuth enforces the X-Debug-Key header on privileged endpoints,
// per spec §7 ("authorization errors"). An empty configured key disables
// the check entirely (development default).
func DebugKeyAuth(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-Debug-Key") != expected {
			apiError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid X-Debug-Key")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CORS applies the ALLOWED_ORIGINS pattern rules from spec §6.2:
// "*.example.com" matches one-label subdomains and the bare domain.
func CORS(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin, allowed) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-Debug-Key")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	host := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	host = strings.SplitN(host, ":", 2)[0]
	for _, pattern := range patterns {
		if pattern == "*" || pattern == host {
			return true
		}
		if strings.HasPrefix(pattern, "*.") {
			suffix := pattern[1:] // ".example.com"
			bareDomain := pattern[2:]
			if host == bareDomain {
				return true
			}
			if strings.HasSuffix(host, suffix) {
				rest := strings.TrimSuffix(host, suffix)
				if !strings.Contains(rest, ".") {
					return true
				}
			}
		}
	}
	return false
}
