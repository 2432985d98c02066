package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/constants"
	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/services"
)

// ResolveActor loads the lifecycle actor of the authenticated user. It must
// run after RequireAuth.
func ResolveActor(actorService *services.ActorService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		actor, err := actorService.Resolve(userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				apierrors.Unauthorized(c, "Unknown user")
			} else {
				logger.Error("Failed to resolve actor", zap.Uint64("user_id", userID), zap.Error(err))
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyActor, actor)
		c.Next()
	}
}

// GetActor retrieves the actor set by ResolveActor
func GetActor(c *gin.Context) (lifecycle.Actor, bool) {
	v, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return lifecycle.Actor{}, false
	}
	actor, ok := v.(lifecycle.Actor)
	return actor, ok
}
