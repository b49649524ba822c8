package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"brainrot-market-backend/internal/common/errors"
)

// AdminAuth guards the admin panel API with a static bearer token.
func AdminAuth(token string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || provided == "" {
			c.Error(errors.NewForbiddenError("missing bearer token"))
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			log.Warn().
				Str("request_id", getRequestID(c)).
				Str("path", c.Request.URL.Path).
				Msg("Rejected admin request with invalid token")
			c.Error(errors.NewForbiddenError("invalid token"))
			c.Abort()
			return
		}

		c.Next()
	}
}
