package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JillVernus/claude-relay-service/internal/requestlog"
)

const logFieldsKey = "request_log_fields"

// SetLogField lets relay handlers attach fields (model, token counts,
// account id) to the finish event of the current request.
func SetLogField(c *gin.Context, key string, value any) {
	fields, exists := c.Get(logFieldsKey)
	if !exists {
		fields = requestlog.Fields{}
		c.Set(logFieldsKey, fields)
	}
	if m, ok := fields.(requestlog.Fields); ok {
		m[key] = value
	}
}

// RequestEvents emits a start event before the relay handles a request
// and a finish event afterwards. Both are best-effort; emission never
// affects the request cycle.
func RequestEvents(emitter *requestlog.Emitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		base := requestlog.Fields{
			"requestId": c.GetString(ContextKeyRequestID),
			"method":    c.Request.Method,
			"endpoint":  c.Request.URL.Path,
		}
		emitter.EmitStart(c.Request.Context(), base)

		c.Next()

		finish := requestlog.Fields{
			"requestId":  c.GetString(ContextKeyRequestID),
			"method":     c.Request.Method,
			"endpoint":   c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			finish["errorMessage"] = c.Errors.Last().Error()
		}
		if fields, exists := c.Get(logFieldsKey); exists {
			if m, ok := fields.(requestlog.Fields); ok {
				for key, value := range m {
					finish[key] = value
				}
			}
		}
		emitter.EmitFinish(c.Request.Context(), finish)
	}
}
