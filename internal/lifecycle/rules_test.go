package lifecycle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

func TestCanTransitionApplication(t *testing.T) {
	tests := []struct {
		from models.ApplicationStatus
		to   models.ApplicationStatus
		want bool
	}{
		{models.ApplicationStatusPending, models.ApplicationStatusAccepted, true},
		{models.ApplicationStatusPending, models.ApplicationStatusRejected, true},
		{models.ApplicationStatusPending, models.ApplicationStatusWithdrawn, true},
		{models.ApplicationStatusPending, models.ApplicationStatusPending, false},
		{models.ApplicationStatusAccepted, models.ApplicationStatusWithdrawn, false},
		{models.ApplicationStatusRejected, models.ApplicationStatusAccepted, false},
		{models.ApplicationStatusWithdrawn, models.ApplicationStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionApplication(tt.from, tt.to))
		})
	}
}

func TestCanTransitionAssignment(t *testing.T) {
	assert.True(t, CanTransitionAssignment(models.AssignmentStatusActive, models.AssignmentStatusCompleted))
	assert.True(t, CanTransitionAssignment(models.AssignmentStatusActive, models.AssignmentStatusTerminated))
	assert.False(t, CanTransitionAssignment(models.AssignmentStatusCompleted, models.AssignmentStatusTerminated))
	assert.False(t, CanTransitionAssignment(models.AssignmentStatusTerminated, models.AssignmentStatusActive))
}

func TestCanTransitionOpportunity(t *testing.T) {
	assert.True(t, CanTransitionOpportunity(models.OpportunityStatusDraft, models.OpportunityStatusActive))
	assert.True(t, CanTransitionOpportunity(models.OpportunityStatusClosed, models.OpportunityStatusActive))
	assert.True(t, CanTransitionOpportunity(models.OpportunityStatusPaused, models.OpportunityStatusArchived))
	assert.False(t, CanTransitionOpportunity(models.OpportunityStatusArchived, models.OpportunityStatusActive))
	assert.False(t, CanTransitionOpportunity(models.OpportunityStatusActive, models.OpportunityStatus("gone")))
}

func TestNormalizeHours(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{"whole hours", "5", "5.00", true},
		{"rounds half up", "2.345", "2.35", true},
		{"maximum", "24", "24.00", true},
		{"rounds up past maximum", "24.005", "24.01", false},
		{"zero", "0", "0.00", false},
		{"rounds down to zero", "0.004", "0.00", false},
		{"negative", "-1.5", "-1.50", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeHours(decimal.RequireFromString(tt.in))
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestActorCapabilities(t *testing.T) {
	supervisor := uint64(10)
	asg := &models.Assignment{VolunteerID: 5, SupervisorID: &supervisor}
	opp := &models.Opportunity{OrganizationID: 3}

	vol := Actor{UserID: 5}
	sup := Actor{UserID: 10}
	coord := Actor{UserID: 11, ReviewerOrgIDs: []uint64{3}}
	admin := Actor{UserID: 12, SuperAdmin: true}

	assert.False(t, vol.CanApproveTimeLogs(asg))
	assert.True(t, sup.CanApproveTimeLogs(asg))
	assert.False(t, coord.CanApproveTimeLogs(asg))
	assert.True(t, admin.CanApproveTimeLogs(asg))

	assert.True(t, vol.CanLogTime(asg))
	assert.True(t, sup.CanLogTime(asg))
	assert.False(t, coord.CanLogTime(asg))

	assert.False(t, vol.CanManageAssignment(asg, opp))
	assert.True(t, coord.CanManageAssignment(asg, opp))
	assert.True(t, vol.CanViewAssignment(asg, opp))
	assert.False(t, Actor{UserID: 99}.CanViewAssignment(asg, opp))

	assert.True(t, coord.ReviewsOrganization(3))
	assert.False(t, coord.ReviewsOrganization(4))
	assert.True(t, admin.ReviewsOrganization(4))
}
