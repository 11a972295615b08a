package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserID returns the authenticated user's ID from the gin context.
// The second return value is false when the request is unauthenticated
// or the subject is not a valid UUID.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.UUID{}, false
	}
	sub, ok := raw.(string)
	if !ok {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// MustUserID returns the authenticated user's ID or aborts with 401.
// Returns false when the request was aborted.
func MustUserID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := UserID(c)
	if !ok {
		abortUnauthorized(c, errMissingToken)
		return uuid.UUID{}, false
	}
	return id, true
}
