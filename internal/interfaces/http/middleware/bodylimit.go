package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erp/amazon-connector/internal/interfaces/http/dto"
)

// BodyLimit rejects requests whose body exceeds maxBytes. The declared
// Content-Length is checked up front; streaming bodies are capped with a
// MaxBytesReader so chunked uploads cannot bypass the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "Request body exceeds maximum allowed size"))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
