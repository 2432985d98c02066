package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/services"
)

type UserHandler struct {
	actorService *services.ActorService
	logger       *zap.Logger
}

func NewUserHandler(actorService *services.ActorService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		actorService: actorService,
		logger:       logger,
	}
}

// Me returns the signed-in user and the organizations they coordinate
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.actorService.GetUser(actor.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.Unauthorized(c, "Unknown user")
			return
		}
		h.logger.Error("Failed to load user", zap.Uint64("user_id", actor.UserID), zap.Error(err))
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, dto.ToMeDTO(*user, actor.ReviewerOrgIDs))
}
