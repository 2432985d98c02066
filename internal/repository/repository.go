package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// Store groups the lifecycle repositories so a unit of work can run them
// against a single transaction.
type Store interface {
	Opportunities() OpportunityRepository
	Applications() ApplicationRepository
	Assignments() AssignmentRepository
	TimeLogs() TimeLogRepository
	Outbox() OutboxRepository
	Members() MemberRepository

	// Transaction runs fn inside a database transaction. The Store passed to
	// fn is bound to that transaction; returning an error rolls it back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// OpportunityRepository defines the interface for opportunity data access
type OpportunityRepository interface {
	// Create creates a new opportunity
	Create(ctx context.Context, opp *models.Opportunity) error

	// FindByID finds an opportunity by ID
	FindByID(ctx context.Context, id uint64) (*models.Opportunity, error)

	// FindByIDForUpdate finds an opportunity by ID and locks the row
	FindByIDForUpdate(ctx context.Context, id uint64) (*models.Opportunity, error)

	// List retrieves opportunities with filtering and pagination
	List(ctx context.Context, filter OpportunityFilter) ([]models.Opportunity, int64, error)

	// IncrementSlotsFilled adds one filled slot if capacity remains.
	// It reports false when the opportunity is already full.
	IncrementSlotsFilled(ctx context.Context, id uint64) (bool, error)

	// UpdateSlotsNeeded changes the capacity unless it would drop below the
	// number of filled slots.
	UpdateSlotsNeeded(ctx context.Context, id uint64, slotsNeeded int) (bool, error)

	// UpdateStatus moves the opportunity from one status to another.
	UpdateStatus(ctx context.Context, id uint64, from, to models.OpportunityStatus) (bool, error)

	// SoftDeleteCascade soft deletes the opportunity with its applications,
	// assignments and time logs, leaf first.
	SoftDeleteCascade(ctx context.Context, id uint64) error
}

// OpportunityFilter holds filtering options for listing opportunities
type OpportunityFilter struct {
	OrganizationID *uint64
	Status         *models.OpportunityStatus
	Page           int
	PageSize       int
}

// ApplicationRepository defines the interface for application data access
type ApplicationRepository interface {
	// Create creates a new application. A second pending application for the
	// same applicant and opportunity fails with gorm.ErrDuplicatedKey.
	Create(ctx context.Context, app *models.Application) error

	// FindByID finds an application by ID
	FindByID(ctx context.Context, id uint64) (*models.Application, error)

	// FindByIDForUpdate finds an application by ID and locks the row
	FindByIDForUpdate(ctx context.Context, id uint64) (*models.Application, error)

	// HasPending reports whether the applicant has a pending application for the opportunity
	HasPending(ctx context.Context, applicantID, opportunityID uint64) (bool, error)

	// Resolve moves a pending application to a final status.
	// It reports false when the application is no longer pending.
	Resolve(ctx context.Context, id uint64, change ApplicationResolution) (bool, error)

	// MarkReviewStarted records the reviewer on a pending application
	MarkReviewStarted(ctx context.Context, id, reviewerID uint64, at time.Time) (bool, error)

	// List retrieves applications with filtering and pagination
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error)
}

// ApplicationResolution describes the final state written by Resolve
type ApplicationResolution struct {
	Status        models.ApplicationStatus
	ReviewerID    *uint64
	ReviewedAt    time.Time
	ReviewerNotes string
}

// ApplicationFilter holds filtering options for listing applications
type ApplicationFilter struct {
	OpportunityID *uint64
	ApplicantID   *uint64
	Status        *models.ApplicationStatus
	Page          int
	PageSize      int
}

// AssignmentRepository defines the interface for assignment data access
type AssignmentRepository interface {
	// Create creates a new assignment
	Create(ctx context.Context, asg *models.Assignment) error

	// FindByID finds an assignment by ID
	FindByID(ctx context.Context, id uint64) (*models.Assignment, error)

	// FindByIDForUpdate finds an assignment by ID and locks the row
	FindByIDForUpdate(ctx context.Context, id uint64) (*models.Assignment, error)

	// End moves an active assignment to completed or terminated.
	// It reports false when the assignment is no longer active.
	End(ctx context.Context, id uint64, status models.AssignmentStatus, reason string, at time.Time) (bool, error)

	// AddHoursCompleted atomically increases hours_completed
	AddHoursCompleted(ctx context.Context, id uint64, hours decimal.Decimal) error

	// SubtractHoursCompleted atomically decreases hours_completed.
	// It reports false when the counter would become negative.
	SubtractHoursCompleted(ctx context.Context, id uint64, hours decimal.Decimal) (bool, error)

	// ResetHoursCompleted sets hours_completed to zero
	ResetHoursCompleted(ctx context.Context, id uint64) error

	// CountByOpportunity counts assignments of an opportunity in the given status
	CountByOpportunity(ctx context.Context, opportunityID uint64, status models.AssignmentStatus) (int64, error)

	// List retrieves assignments with filtering and pagination
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error)
}

// AssignmentFilter holds filtering options for listing assignments
type AssignmentFilter struct {
	OpportunityID *uint64
	VolunteerID   *uint64
	Status        *models.AssignmentStatus
	Page          int
	PageSize      int
}

// TimeLogRepository defines the interface for time log data access
type TimeLogRepository interface {
	// Create creates a new time log
	Create(ctx context.Context, log *models.TimeLog) error

	// FindByID finds a time log by ID
	FindByID(ctx context.Context, id uint64) (*models.TimeLog, error)

	// FindByIDForUpdate finds a time log by ID and locks the row
	FindByIDForUpdate(ctx context.Context, id uint64) (*models.TimeLog, error)

	// UpdateVersioned applies fields if the stored version still matches and
	// bumps the version. It reports false on a version mismatch.
	UpdateVersioned(ctx context.Context, id uint64, version int, fields map[string]interface{}) (bool, error)

	// Delete soft deletes a time log
	Delete(ctx context.Context, id uint64) error

	// CountPendingByOpportunity counts time logs awaiting a decision under an opportunity
	CountPendingByOpportunity(ctx context.Context, opportunityID uint64) (int64, error)

	// SumApprovedHours sums the hours of approved time logs of an assignment
	SumApprovedHours(ctx context.Context, assignmentID uint64) (decimal.Decimal, error)

	// ListByAssignment retrieves the time logs of an assignment
	ListByAssignment(ctx context.Context, assignmentID uint64, page, pageSize int) ([]models.TimeLog, int64, error)
}

// OutboxRepository defines the interface for the event outbox
type OutboxRepository interface {
	// Add stores an event
	Add(ctx context.Context, event *models.OutboxEvent) error

	// FetchUnpublished locks and returns the oldest unpublished events that
	// have failed fewer than maxAttempts times. Rows locked by another relay
	// are skipped.
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)

	// MarkPublished stamps events as delivered
	MarkPublished(ctx context.Context, ids []uint64, at time.Time) error

	// MarkFailed records a failed delivery attempt
	MarkFailed(ctx context.Context, id uint64, reason string) error
}

// MemberRepository answers membership questions inside a lifecycle unit of work
type MemberRepository interface {
	// IsMember reports whether the user belongs to the organization
	IsMember(ctx context.Context, organizationID, userID uint64) (bool, error)
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization and adds its owner in one transaction
	Create(org *models.Organization, owner *models.OrganizationMember) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindByInviteCode finds an organization by invite code
	FindByInviteCode(code string) (*models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// Delete deletes an organization and its memberships
	Delete(id uint64) error

	// CountOpportunities counts the organization's opportunities that are not deleted
	CountOpportunities(id uint64) (int64, error)

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// UpdateMemberRole changes the role of a member
	UpdateMemberRole(organizationID, userID uint64, role models.OrganizationRole) error

	// RemoveMember removes a member from an organization
	RemoveMember(organizationID, userID uint64) error

	// FindMember finds a specific organization member
	FindMember(organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(userID uint64) ([]models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(organizationID uint64) ([]models.OrganizationMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// SetSuperAdmin grants or revokes platform-wide administration
	SetSuperAdmin(id uint64, superAdmin bool) error
}
