package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/utils"
)

type AssignmentHandler struct {
	engine *lifecycle.Engine
	logger *zap.Logger
}

func NewAssignmentHandler(engine *lifecycle.Engine, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		engine: engine,
		logger: logger,
	}
}

// ListAssignments lists the assignments of an opportunity for coordinators,
// or the caller's own assignments when no opportunity is given
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	oppID, ok := parseOptionalIDQuery(c, "opportunity_id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := repository.AssignmentFilter{
		OpportunityID: oppID,
		Page:          params.Page,
		PageSize:      params.Limit,
	}
	if oppID == nil {
		filter.VolunteerID = &actor.UserID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AssignmentStatus(raw)
		switch status {
		case models.AssignmentStatusActive, models.AssignmentStatusCompleted, models.AssignmentStatusTerminated:
			filter.Status = &status
		default:
			apierrors.BadRequest(c, "Invalid status")
			return
		}
	}

	asgs, total, err := h.engine.ListAssignments(c.Request.Context(), actor, filter)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAssignmentListResponse(asgs, params.Page, params.Limit, total))
}

// GetAssignment returns a single assignment
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	asg, err := h.engine.GetAssignment(c.Request.Context(), actor, id)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAssignmentDTO(*asg))
}

// CompleteAssignment marks an active assignment as completed
func (h *AssignmentHandler) CompleteAssignment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	asg, err := h.engine.CompleteAssignment(c.Request.Context(), actor, id)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAssignmentDTO(*asg))
}

// TerminateAssignment ends an active assignment early with a reason
func (h *AssignmentHandler) TerminateAssignment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	asg, err := h.engine.TerminateAssignment(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAssignmentDTO(*asg))
}
