package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retail/backoffice/internal/infrastructure/logger"
	"github.com/retail/backoffice/internal/interfaces/http/dto"
)

// BodyLimitOption customizes BodyLimit
type BodyLimitOption func(map[string]int64)

// WithRouteLimit applies maxBytes to one registered route pattern, such as
// "/api/v1/products/import", instead of the default limit
func WithRouteLimit(route string, maxBytes int64) BodyLimitOption {
	return func(limits map[string]int64) {
		limits[route] = maxBytes
	}
}

// BodyLimit returns a middleware that limits request body size. A limit of
// zero or less disables the check for that route.
func BodyLimit(maxBytes int64, opts ...BodyLimitOption) gin.HandlerFunc {
	routes := make(map[string]int64)
	for _, opt := range opts {
		opt(routes)
	}

	return func(c *gin.Context) {
		limit := maxBytes
		if l, ok := routes[c.FullPath()]; ok {
			limit = l
		}
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString(logger.GinRequestIDKey),
			))
			return
		}

		// Chunked bodies have no Content-Length; the reader enforces the limit.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
