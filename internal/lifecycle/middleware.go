package lifecycle

import (
	"crypto/subtle"
	"net/http"

	"member_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// TokenHeader is the header carrying the shared webhook secret.
const TokenHeader = "X-Lifecycle-Token"

// TokenAuthMiddleware rejects webhook calls without the configured shared
// secret. Constant-time comparison to avoid timing leaks.
func TokenAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(TokenHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			httpkit.Error(c, http.StatusUnauthorized, "invalid webhook token", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
