package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/utils"
)

type OpportunityHandler struct {
	engine *lifecycle.Engine
	logger *zap.Logger
}

func NewOpportunityHandler(engine *lifecycle.Engine, logger *zap.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		engine: engine,
		logger: logger,
	}
}

type createOpportunityRequest struct {
	OrganizationID      uint64                   `json:"organization_id" binding:"required"`
	Title               string                   `json:"title" binding:"required"`
	Description         string                   `json:"description"`
	SlotsNeeded         int                      `json:"slots_needed" binding:"required"`
	Status              models.OpportunityStatus `json:"status"`
	ApplicationDeadline *time.Time               `json:"application_deadline"`
	StartDate           time.Time                `json:"start_date" binding:"required"`
	EndDate             *time.Time               `json:"end_date"`
}

// CreateOpportunity creates an opportunity for an organization the caller coordinates
func (h *OpportunityHandler) CreateOpportunity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req createOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	opp, err := h.engine.CreateOpportunity(c.Request.Context(), actor, lifecycle.CreateOpportunityInput{
		OrganizationID:      req.OrganizationID,
		Title:               req.Title,
		Description:         req.Description,
		SlotsNeeded:         req.SlotsNeeded,
		Status:              req.Status,
		ApplicationDeadline: req.ApplicationDeadline,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
	})
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOpportunityDTO(*opp))
}

// ListOpportunities lists opportunities, optionally by organization and status
func (h *OpportunityHandler) ListOpportunities(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	orgID, ok := parseOptionalIDQuery(c, "organization_id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := repository.OpportunityFilter{
		OrganizationID: orgID,
		Page:           params.Page,
		PageSize:       params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.OpportunityStatus(raw)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		filter.Status = &status
	}

	opps, total, err := h.engine.ListOpportunities(c.Request.Context(), actor, filter)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOpportunityListResponse(opps, params.Page, params.Limit, total))
}

// GetOpportunity returns a single opportunity
func (h *OpportunityHandler) GetOpportunity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	opp, err := h.engine.GetOpportunity(c.Request.Context(), actor, id)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOpportunityDTO(*opp))
}

type setOpportunityStatusRequest struct {
	Status models.OpportunityStatus `json:"status" binding:"required"`
}

// SetOpportunityStatus moves an opportunity through its status lifecycle
func (h *OpportunityHandler) SetOpportunityStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req setOpportunityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	opp, err := h.engine.SetOpportunityStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOpportunityDTO(*opp))
}

type updateCapacityRequest struct {
	SlotsNeeded int `json:"slots_needed" binding:"required"`
}

// UpdateCapacity changes the number of slots an opportunity offers
func (h *OpportunityHandler) UpdateCapacity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	opp, err := h.engine.UpdateCapacity(c.Request.Context(), actor, id, req.SlotsNeeded)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOpportunityDTO(*opp))
}

// DeleteOpportunity deletes an opportunity. ?force=true also discards time
// logs still awaiting approval.
func (h *OpportunityHandler) DeleteOpportunity(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	force, err := strconv.ParseBool(c.DefaultQuery("force", "false"))
	if err != nil {
		apierrors.BadRequest(c, "Invalid force flag")
		return
	}

	if err := h.engine.DeleteOpportunity(c.Request.Context(), actor, id, force); err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Opportunity deleted successfully",
	})
}
