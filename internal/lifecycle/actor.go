package lifecycle

import "github.com/yukikurage/volunteer-lifecycle-api/internal/models"

// Actor is the caller of an engine operation. It is resolved once per
// request from the user record and organization memberships.
type Actor struct {
	UserID     uint64
	SuperAdmin bool
	// ReviewerOrgIDs lists organizations where the user is an owner or coordinator.
	ReviewerOrgIDs []uint64
}

// ReviewsOrganization reports whether the actor may review applications and
// manage opportunities of the organization.
func (a Actor) ReviewsOrganization(orgID uint64) bool {
	if a.SuperAdmin {
		return true
	}
	for _, id := range a.ReviewerOrgIDs {
		if id == orgID {
			return true
		}
	}
	return false
}

func (a Actor) isSupervisorOf(asg *models.Assignment) bool {
	return asg.SupervisorID != nil && *asg.SupervisorID == a.UserID
}

// CanApproveTimeLogs reports whether the actor may approve, reject or
// unapprove time logs of the assignment.
func (a Actor) CanApproveTimeLogs(asg *models.Assignment) bool {
	return a.SuperAdmin || a.isSupervisorOf(asg)
}

// CanManageAssignment reports whether the actor may complete or terminate
// the assignment.
func (a Actor) CanManageAssignment(asg *models.Assignment, opp *models.Opportunity) bool {
	return a.isSupervisorOf(asg) || a.ReviewsOrganization(opp.OrganizationID)
}

// CanLogTime reports whether the actor may record hours on the assignment.
func (a Actor) CanLogTime(asg *models.Assignment) bool {
	return a.SuperAdmin || a.UserID == asg.VolunteerID || a.isSupervisorOf(asg)
}

// CanViewAssignment reports whether the actor may read the assignment and its time logs.
func (a Actor) CanViewAssignment(asg *models.Assignment, opp *models.Opportunity) bool {
	return a.UserID == asg.VolunteerID || a.CanManageAssignment(asg, opp)
}
