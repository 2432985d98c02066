package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/volunteer-lifecycle-api/internal/errors"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/services"
)

const (
	contextKeyOrganizationMember = "organization_member"
)

// RequireOrganizationAccess checks that the user is a member of the
// organization in the :id parameter. Super admins pass as owners.
func RequireOrganizationAccess(orgService *services.OrganizationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		member, err := orgService.GetMembership(orgID, userID)
		if err != nil {
			if !errors.Is(err, services.ErrOrganizationMemberNotFound) {
				apierrors.InternalError(c, "Failed to verify membership")
				c.Abort()
				return
			}
			actor, ok := GetActor(c)
			if !ok || !actor.SuperAdmin {
				// 404 rather than 403 so organization existence is not leaked
				apierrors.NotFound(c, "Organization not found")
				c.Abort()
				return
			}
			member = &models.OrganizationMember{OrganizationID: orgID, UserID: userID, Role: models.RoleOwner}
		}

		c.Set(contextKeyOrganizationMember, *member)
		c.Next()
	}
}

// RequireOrganizationOwner checks that the member is the organization owner.
func RequireOrganizationOwner() gin.HandlerFunc {
	return requireRole("Only organization owners can perform this action", func(r models.OrganizationRole) bool {
		return r == models.RoleOwner
	})
}

// RequireOrganizationReviewer checks that the member is an owner or coordinator.
func RequireOrganizationReviewer() gin.HandlerFunc {
	return requireRole("Only organization coordinators can perform this action", models.OrganizationRole.CanReview)
}

func requireRole(message string, allowed func(models.OrganizationRole) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetOrganizationMember(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}

		if !allowed(member.Role) {
			apierrors.Forbidden(c, message)
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetOrganizationMember retrieves the membership set by RequireOrganizationAccess
func GetOrganizationMember(c *gin.Context) (models.OrganizationMember, bool) {
	v, exists := c.Get(contextKeyOrganizationMember)
	if !exists {
		return models.OrganizationMember{}, false
	}
	member, ok := v.(models.OrganizationMember)
	return member, ok
}
