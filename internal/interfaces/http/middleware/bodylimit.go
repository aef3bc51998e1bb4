package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erp/shipping/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that rejects request bodies larger than
// maxBytes. Webhook and booking payloads are small; anything oversized is
// either a mistake or abuse.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "Request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
