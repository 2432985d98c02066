package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/constants"
	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
)

// RequireAuth checks that the shared session carries a user ID. Sessions are
// written by the identity provider into the same Redis store.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := toUserID(session.Get(constants.ContextKeyUserID))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(userID)
}

func toUserID(v interface{}) (uint64, bool) {
	switch v := v.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int64:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
