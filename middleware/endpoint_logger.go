package middleware

import (
	"fmt"
	"time"

	"github.com/TurahWilson/TubesIAE/util"
	"github.com/gin-gonic/gin"
)

// EndpointCallLogger logs each HTTP request as an audit event. Entries are
// persisted when util.SetSecurityLoggerDB was called during startup.
func EndpointCallLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		details := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"raw_path":    c.Request.URL.Path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
		}

		event := util.SecurityEvent{
			EventType: util.EventEndpointCall,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status),
			Details:   details,
		}
		if sess, ok := GetSession(c); ok {
			event.SessionID = sess.SessionID
			event.Email = sess.Email
			details["role"] = sess.Role
		}
		util.LogSecurityEvent(event)
	}
}
