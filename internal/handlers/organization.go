package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/dto"
	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/middleware"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/services"
)

type OrganizationHandler struct {
	orgService *services.OrganizationService
	logger     *zap.Logger
}

func NewOrganizationHandler(orgService *services.OrganizationService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
		logger:     logger,
	}
}

type createOrganizationRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateOrganization creates a new organization owned by the caller
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.CreateOrganization(services.CreateOrganizationInput{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(*org, true))
}

// ListOrganizations returns all organizations the user is a member of
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.orgService.ListOrganizationsForUser(userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	orgs := make([]dto.OrganizationWithRoleDTO, len(memberships))
	for i, m := range memberships {
		orgs[i] = dto.ToOrganizationWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": orgs,
	})
}

// GetOrganization returns organization details with its members
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	member, ok := middleware.GetOrganizationMember(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}

	org, members, err := h.orgService.GetOrganizationWithMembers(member.OrganizationID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(*org, members, member.Role))
}

type updateOrganizationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// UpdateOrganization updates organization name or description
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	member, ok := middleware.GetOrganizationMember(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}

	var req updateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.UpdateOrganization(member.OrganizationID, services.UpdateOrganizationInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org, true))
}

// DeleteOrganization deletes an organization without opportunities
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	member, ok := middleware.GetOrganizationMember(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}

	if err := h.orgService.DeleteOrganization(member.OrganizationID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Organization deleted successfully",
	})
}

type joinOrganizationRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

// JoinOrganization allows a user to join via invite code
func (h *OrganizationHandler) JoinOrganization(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req joinOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.JoinOrganizationByInvite(userID, req.InviteCode)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Successfully joined organization",
		"organization": dto.ToOrganizationDTO(*org, false),
	})
}

// RegenerateInviteCode generates a new invite code for the organization
func (h *OrganizationHandler) RegenerateInviteCode(c *gin.Context) {
	member, ok := middleware.GetOrganizationMember(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}

	org, err := h.orgService.RegenerateInviteCode(member.OrganizationID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org, true))
}

type setMemberRoleRequest struct {
	Role models.OrganizationRole `json:"role" binding:"required"`
}

// SetMemberRole promotes a member to coordinator or demotes them back
func (h *OrganizationHandler) SetMemberRole(c *gin.Context) {
	member, ok := middleware.GetOrganizationMember(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}

	targetID, ok := parseUserIDParam(c)
	if !ok {
		return
	}

	var req setMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.orgService.SetMemberRole(member.OrganizationID, targetID, req.Role)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": updated.UserID,
		"role":    updated.Role,
	})
}

// RemoveMember removes a member from the organization
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	member, ok := middleware.GetOrganizationMember(c)
	if !ok {
		apierrors.Forbidden(c, "Organization access required")
		return
	}

	targetID, ok := parseUserIDParam(c)
	if !ok {
		return
	}

	currentUserID, _ := middleware.GetUserID(c)
	if err := h.orgService.RemoveMember(member.OrganizationID, currentUserID, targetID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

func parseUserIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid user ID")
		return 0, false
	}
	return id, true
}

func (h *OrganizationHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrOrganizationMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidInviteCode):
		apierrors.NotFound(c, "Invalid invite code")
	case errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrCannotRemoveYourself):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCannotChangeOwnerRole):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyOrganizationMember):
		apierrors.Respond(c, http.StatusConflict, apierrors.ErrCodeAlreadyExists, err.Error())
	case errors.Is(err, services.ErrOrganizationHasOpportunities):
		apierrors.Respond(c, http.StatusConflict, apierrors.ErrCodeResourceInUse, err.Error())
	default:
		h.logger.Error("Organization request failed", zap.String("path", c.FullPath()), zap.Error(err))
		apierrors.InternalError(c, "")
	}
}
