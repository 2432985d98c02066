package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/middleware"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/services"
)

// Handlers groups the API handlers mounted by RegisterRoutes
type Handlers struct {
	Users         *UserHandler
	Organizations *OrganizationHandler
	Opportunities *OpportunityHandler
	Applications  *ApplicationHandler
	Assignments   *AssignmentHandler
	TimeLogs      *TimeLogHandler
}

// RegisterRoutes mounts the API on a group that already authenticates the
// user and resolves their actor.
func RegisterRoutes(api *gin.RouterGroup, orgService *services.OrganizationService, h Handlers) {
	api.GET("/me", h.Users.Me)

	orgs := api.Group("/organizations")
	{
		orgAccess := middleware.RequireOrganizationAccess(orgService)
		owner := middleware.RequireOrganizationOwner()
		reviewer := middleware.RequireOrganizationReviewer()

		orgs.POST("", h.Organizations.CreateOrganization)
		orgs.GET("", h.Organizations.ListOrganizations)
		orgs.POST("/join", h.Organizations.JoinOrganization)
		orgs.GET("/:id", orgAccess, h.Organizations.GetOrganization)
		orgs.PUT("/:id", orgAccess, owner, h.Organizations.UpdateOrganization)
		orgs.DELETE("/:id", orgAccess, owner, h.Organizations.DeleteOrganization)
		orgs.POST("/:id/regenerate-code", orgAccess, reviewer, h.Organizations.RegenerateInviteCode)
		orgs.PUT("/:id/members/:user_id/role", orgAccess, owner, h.Organizations.SetMemberRole)
		orgs.DELETE("/:id/members/:user_id", orgAccess, owner, h.Organizations.RemoveMember)
	}

	opps := api.Group("/opportunities")
	{
		opps.POST("", h.Opportunities.CreateOpportunity)
		opps.GET("", h.Opportunities.ListOpportunities)
		opps.GET("/:id", h.Opportunities.GetOpportunity)
		opps.PUT("/:id/status", h.Opportunities.SetOpportunityStatus)
		opps.PUT("/:id/capacity", h.Opportunities.UpdateCapacity)
		opps.DELETE("/:id", h.Opportunities.DeleteOpportunity)
		opps.POST("/:id/applications", h.Applications.SubmitApplication)
	}

	apps := api.Group("/applications")
	{
		apps.GET("", h.Applications.ListApplications)
		apps.GET("/:id", h.Applications.GetApplication)
		apps.POST("/:id/review", h.Applications.StartReview)
		apps.POST("/:id/accept", h.Applications.AcceptApplication)
		apps.POST("/:id/reject", h.Applications.RejectApplication)
		apps.POST("/:id/withdraw", h.Applications.WithdrawApplication)
	}

	asgs := api.Group("/assignments")
	{
		asgs.GET("", h.Assignments.ListAssignments)
		asgs.GET("/:id", h.Assignments.GetAssignment)
		asgs.POST("/:id/complete", h.Assignments.CompleteAssignment)
		asgs.POST("/:id/terminate", h.Assignments.TerminateAssignment)
		asgs.POST("/:id/time-logs", h.TimeLogs.LogTime)
		asgs.GET("/:id/time-logs", h.TimeLogs.ListTimeLogs)
	}

	logs := api.Group("/time-logs")
	{
		logs.POST("/bulk-approve", h.TimeLogs.BulkApproveTimeLogs)
		logs.GET("/:id", h.TimeLogs.GetTimeLog)
		logs.PATCH("/:id", h.TimeLogs.UpdateTimeLog)
		logs.DELETE("/:id", h.TimeLogs.DeleteTimeLog)
		logs.POST("/:id/approve", h.TimeLogs.ApproveTimeLog)
		logs.POST("/:id/unapprove", h.TimeLogs.UnapproveTimeLog)
		logs.POST("/:id/reject", h.TimeLogs.RejectTimeLog)
	}
}
