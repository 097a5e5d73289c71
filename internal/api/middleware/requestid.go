package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/spendguard/spendguard/internal/shared/id"
)

// RequestIDHeader carries the correlation id on responses.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a generated request id to every request, honoring an
// id the client already sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = id.NewRequestID().String()
		}
		c.Set("request_id", reqID)
		c.Writer.Header().Set(RequestIDHeader, reqID)
		c.Next()
	}
}
