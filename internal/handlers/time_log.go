package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/utils"
)

// maxBulkApprove bounds the number of time logs approved in one request.
const maxBulkApprove = 200

type TimeLogHandler struct {
	engine *lifecycle.Engine
	logger *zap.Logger
}

func NewTimeLogHandler(engine *lifecycle.Engine, logger *zap.Logger) *TimeLogHandler {
	return &TimeLogHandler{
		engine: engine,
		logger: logger,
	}
}

type logTimeRequest struct {
	Date        string           `json:"date" binding:"required"`
	Hours       *decimal.Decimal `json:"hours" binding:"required"`
	Description string           `json:"description"`
}

// LogTime records hours on the assignment in the :id parameter
func (h *TimeLogHandler) LogTime(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	asgID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req logTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		apierrors.BadRequest(c, "date must be formatted as YYYY-MM-DD")
		return
	}

	log, err := h.engine.LogTime(c.Request.Context(), actor, lifecycle.LogTimeInput{
		AssignmentID: asgID,
		Date:         date,
		Hours:        *req.Hours,
		Description:  req.Description,
	})
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTimeLogDTO(*log))
}

// ListTimeLogs lists the time logs of the assignment in the :id parameter
func (h *TimeLogHandler) ListTimeLogs(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	asgID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	logs, total, err := h.engine.ListTimeLogs(c.Request.Context(), actor, asgID, params.Page, params.Limit)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogListResponse(logs, params.Page, params.Limit, total))
}

// GetTimeLog returns a single time log
func (h *TimeLogHandler) GetTimeLog(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	log, err := h.engine.GetTimeLog(c.Request.Context(), actor, id)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogDTO(*log))
}

type updateTimeLogRequest struct {
	Date        *string          `json:"date"`
	Hours       *decimal.Decimal `json:"hours"`
	Description *string          `json:"description"`
}

// UpdateTimeLog edits a time log that is still awaiting approval
func (h *TimeLogHandler) UpdateTimeLog(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateTimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	in := lifecycle.UpdateTimeLogInput{
		Hours:       req.Hours,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := time.Parse(dto.DateLayout, *req.Date)
		if err != nil {
			apierrors.BadRequest(c, "date must be formatted as YYYY-MM-DD")
			return
		}
		in.Date = &date
	}

	log, err := h.engine.UpdateTimeLog(c.Request.Context(), actor, id, in)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogDTO(*log))
}

// DeleteTimeLog deletes a time log that is still awaiting approval
func (h *TimeLogHandler) DeleteTimeLog(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.engine.DeleteTimeLog(c.Request.Context(), actor, id); err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Time log deleted successfully",
	})
}

// ApproveTimeLog approves a time log and credits its hours
func (h *TimeLogHandler) ApproveTimeLog(c *gin.Context) {
	h.transition(c, h.engine.Approve)
}

// UnapproveTimeLog reverts an approval and debits its hours
func (h *TimeLogHandler) UnapproveTimeLog(c *gin.Context) {
	h.transition(c, h.engine.Unapprove)
}

// RejectTimeLog rejects a pending time log with a reason
func (h *TimeLogHandler) RejectTimeLog(c *gin.Context) {
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

	log, err := h.engine.RejectTimeLog(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogDTO(*log))
}

type bulkApproveRequest struct {
	TimeLogIDs []uint64 `json:"time_log_ids" binding:"required,min=1"`
}

// BulkApproveTimeLogs approves several time logs. Each entry succeeds or
// fails on its own; failures are reported per ID with a 200 response.
func (h *TimeLogHandler) BulkApproveTimeLogs(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req bulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "time_log_ids must be a non-empty list")
		return
	}
	if len(req.TimeLogIDs) > maxBulkApprove {
		apierrors.BadRequest(c, "too many time logs in one request")
		return
	}

	result := h.engine.BulkApprove(c.Request.Context(), actor, req.TimeLogIDs)
	c.JSON(http.StatusOK, dto.ToBulkApproveResponse(result, lifecycleErrorCode))
}

func (h *TimeLogHandler) transition(c *gin.Context, fn func(ctx context.Context, actor lifecycle.Actor, id uint64) (*models.TimeLog, error)) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	log, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		respondLifecycleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogDTO(*log))
}
