package lifecycle

import (
	"github.com/shopspring/decimal"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/constants"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

var applicationTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationStatusPending: {
		models.ApplicationStatusAccepted,
		models.ApplicationStatusRejected,
		models.ApplicationStatusWithdrawn,
	},
}

var assignmentTransitions = map[models.AssignmentStatus][]models.AssignmentStatus{
	models.AssignmentStatusActive: {
		models.AssignmentStatusCompleted,
		models.AssignmentStatusTerminated,
	},
}

// CanTransitionApplication reports whether an application may move from one status to another.
func CanTransitionApplication(from, to models.ApplicationStatus) bool {
	for _, s := range applicationTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionAssignment reports whether an assignment may move from one status to another.
func CanTransitionAssignment(from, to models.AssignmentStatus) bool {
	for _, s := range assignmentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionOpportunity reports whether an opportunity may change status.
// Archived is terminal; every other pair is allowed.
func CanTransitionOpportunity(from, to models.OpportunityStatus) bool {
	if !to.Valid() {
		return false
	}
	return from != models.OpportunityStatusArchived || to == models.OpportunityStatusArchived
}

var maxHours = decimal.NewFromInt(constants.MaxHoursPerEntry)

// NormalizeHours rounds hours to two decimal places and checks the
// 0 < hours <= 24 bound on the rounded value.
func NormalizeHours(hours decimal.Decimal) (decimal.Decimal, bool) {
	rounded := hours.Round(constants.HoursScale)
	if !rounded.IsPositive() || rounded.GreaterThan(maxHours) {
		return rounded, false
	}
	return rounded, true
}
