package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/utils"
)

type ApplicationHandler struct {
	engine *lifecycle.Engine
	logger *zap.Logger
}

func NewApplicationHandler(engine *lifecycle.Engine, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		engine: engine,
		logger: logger,
	}
}

type submitApplicationRequest struct {
	// ApplicantID lets a coordinator apply on a volunteer's behalf.
	ApplicantID *uint64 `json:"applicant_id"`
	Motivation  string  `json:"motivation"`
}

// SubmitApplication applies to the opportunity in the :id parameter
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	oppID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req submitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	applicantID := actor.UserID
	if req.ApplicantID != nil {
		applicantID = *req.ApplicantID
	}

	app, err := h.engine.Submit(c.Request.Context(), actor, lifecycle.SubmitInput{
		OpportunityID: oppID,
		ApplicantID:   applicantID,
		Motivation:    req.Motivation,
	})
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToApplicationDTO(*app))
}

// ListApplications lists the applications of an opportunity for coordinators,
// or the caller's own applications when no opportunity is given
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	oppID, ok := parseOptionalIDQuery(c, "opportunity_id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := repository.ApplicationFilter{
		OpportunityID: oppID,
		Page:          params.Page,
		PageSize:      params.Limit,
	}
	if oppID == nil {
		filter.ApplicantID = &actor.UserID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ApplicationStatus(raw)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		filter.Status = &status
	}

	apps, total, err := h.engine.ListApplications(c.Request.Context(), actor, filter)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToApplicationListResponse(apps, params.Page, params.Limit, total))
}

// GetApplication returns a single application
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := h.engine.GetApplication(c.Request.Context(), actor, id)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToApplicationDTO(*app))
}

// StartReview marks an application as under review
func (h *ApplicationHandler) StartReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := h.engine.StartReview(c.Request.Context(), actor, id)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToApplicationDTO(*app))
}

type acceptApplicationRequest struct {
	StartDate      *time.Time       `json:"start_date"`
	EndDate        *time.Time       `json:"end_date"`
	HoursCommitted *decimal.Decimal `json:"hours_committed"`
	SupervisorID   *uint64          `json:"supervisor_id"`
}

// AcceptApplication accepts an application and creates its assignment
func (h *ApplicationHandler) AcceptApplication(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	// The body is optional; every field defaults from the opportunity.
	var req acceptApplicationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	app, asg, err := h.engine.Accept(c.Request.Context(), actor, id, lifecycle.AssignmentParams{
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		HoursCommitted: req.HoursCommitted,
		SupervisorID:   req.SupervisorID,
	})
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.AcceptApplicationResponse{
		Application: dto.ToApplicationDTO(*app),
		Assignment:  dto.ToAssignmentDTO(*asg),
	})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// RejectApplication rejects an application with a reason
func (h *ApplicationHandler) RejectApplication(c *gin.Context) {
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

	app, err := h.engine.Reject(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToApplicationDTO(*app))
}

// WithdrawApplication withdraws an application before review starts
func (h *ApplicationHandler) WithdrawApplication(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := h.engine.Withdraw(c.Request.Context(), actor, id)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToApplicationDTO(*app))
}
