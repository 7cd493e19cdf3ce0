package api

import (
	"net/http"
	"strconv"
	"time"

	"ext_builder_server/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie  = "ext_session"
	sessionMaxAge  = 24 * 60 * 60 // seconds
	ctxKeySession  = "sessionID"
	unmatchedRoute = "unmatched"
)

// SessionMiddleware attaches the caller's session ID to the context,
// issuing a new session cookie when the request has none (or an invalid
// one). Shells are not created here: read routes look them up and only the
// generate routes create one.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(cookieValue(c))
		if err != nil {
			id = uuid.New()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id.String(), sessionMaxAge, "/", "", false, true)
		}
		c.Set(ctxKeySession, id)
		c.Next()
	}
}

func cookieValue(c *gin.Context) string {
	v, err := c.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return v
}

func sessionID(c *gin.Context) uuid.UUID {
	return c.MustGet(ctxKeySession).(uuid.UUID)
}

// MetricsMiddleware records request count and latency per route pattern.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
