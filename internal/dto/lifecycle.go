package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// OpportunityDTO represents an opportunity in API responses
type OpportunityDTO struct {
	ID                  uint64                   `json:"id"`
	OrganizationID      uint64                   `json:"organization_id"`
	Title               string                   `json:"title"`
	Description         string                   `json:"description"`
	SlotsNeeded         int                      `json:"slots_needed"`
	SlotsFilled         int                      `json:"slots_filled"`
	Status              models.OpportunityStatus `json:"status"`
	ApplicationDeadline *time.Time               `json:"application_deadline"`
	StartDate           time.Time                `json:"start_date"`
	EndDate             *time.Time               `json:"end_date"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

// OpportunityListResponse represents a paginated list of opportunities
type OpportunityListResponse struct {
	Opportunities []OpportunityDTO `json:"opportunities"`
	PageMeta
}

// ApplicationDTO represents an application in API responses
type ApplicationDTO struct {
	ID              uint64                   `json:"id"`
	OpportunityID   uint64                   `json:"opportunity_id"`
	ApplicantID     uint64                   `json:"applicant_id"`
	Status          models.ApplicationStatus `json:"status"`
	Motivation      string                   `json:"motivation"`
	SubmittedAt     time.Time                `json:"submitted_at"`
	ReviewerID      *uint64                  `json:"reviewer_id"`
	ReviewStartedAt *time.Time               `json:"review_started_at"`
	ReviewedAt      *time.Time               `json:"reviewed_at"`
	ReviewerNotes   string                   `json:"reviewer_notes,omitempty"`
}

// ApplicationListResponse represents a paginated list of applications
type ApplicationListResponse struct {
	Applications []ApplicationDTO `json:"applications"`
	PageMeta
}

// AssignmentDTO represents an assignment in API responses
type AssignmentDTO struct {
	ID             uint64                  `json:"id"`
	ApplicationID  uint64                  `json:"application_id"`
	OpportunityID  uint64                  `json:"opportunity_id"`
	VolunteerID    uint64                  `json:"volunteer_id"`
	StartDate      time.Time               `json:"start_date"`
	EndDate        *time.Time              `json:"end_date"`
	HoursCommitted *string                 `json:"hours_committed"`
	HoursCompleted string                  `json:"hours_completed"`
	SupervisorID   *uint64                 `json:"supervisor_id"`
	Status         models.AssignmentStatus `json:"status"`
	EndReason      string                  `json:"end_reason,omitempty"`
	EndedAt        *time.Time              `json:"ended_at"`
}

// AssignmentListResponse represents a paginated list of assignments
type AssignmentListResponse struct {
	Assignments []AssignmentDTO `json:"assignments"`
	PageMeta
}

// AcceptApplicationResponse carries both records written by an acceptance
type AcceptApplicationResponse struct {
	Application ApplicationDTO `json:"application"`
	Assignment  AssignmentDTO  `json:"assignment"`
}

// TimeLogDTO represents a time log in API responses
type TimeLogDTO struct {
	ID              uint64              `json:"id"`
	AssignmentID    uint64              `json:"assignment_id"`
	LoggedBy        uint64              `json:"logged_by"`
	Date            string              `json:"date"`
	Hours           string              `json:"hours"`
	Description     string              `json:"description"`
	State           models.TimeLogState `json:"state"`
	ApproverID      *uint64             `json:"approver_id"`
	ApprovedAt      *time.Time          `json:"approved_at"`
	RejectedBy      *uint64             `json:"rejected_by"`
	RejectedAt      *time.Time          `json:"rejected_at"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	Version         int                 `json:"version"`
}

// TimeLogListResponse represents a paginated list of time logs
type TimeLogListResponse struct {
	TimeLogs []TimeLogDTO `json:"time_logs"`
	PageMeta
}

// BulkApproveErrorDTO describes one failed entry of a bulk approval
type BulkApproveErrorDTO struct {
	TimeLogID uint64 `json:"time_log_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// BulkApproveResponse reports the outcome of a bulk approval
type BulkApproveResponse struct {
	ApprovedCount int                   `json:"approved_count"`
	Errors        []BulkApproveErrorDTO `json:"errors"`
}

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

func formatHours(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ToOpportunityDTO converts an Opportunity model to OpportunityDTO
func ToOpportunityDTO(opp models.Opportunity) OpportunityDTO {
	return OpportunityDTO{
		ID:                  opp.ID,
		OrganizationID:      opp.OrganizationID,
		Title:               opp.Title,
		Description:         opp.Description,
		SlotsNeeded:         opp.SlotsNeeded,
		SlotsFilled:         opp.SlotsFilled,
		Status:              opp.Status,
		ApplicationDeadline: opp.ApplicationDeadline,
		StartDate:           opp.StartDate,
		EndDate:             opp.EndDate,
		CreatedAt:           opp.CreatedAt,
		UpdatedAt:           opp.UpdatedAt,
	}
}

// ToOpportunityListResponse converts a page of opportunities
func ToOpportunityListResponse(opps []models.Opportunity, page, pageSize int, total int64) OpportunityListResponse {
	items := make([]OpportunityDTO, len(opps))
	for i, opp := range opps {
		items[i] = ToOpportunityDTO(opp)
	}
	return OpportunityListResponse{Opportunities: items, PageMeta: ToPageMeta(page, pageSize, total)}
}

// ToApplicationDTO converts an Application model to ApplicationDTO
func ToApplicationDTO(app models.Application) ApplicationDTO {
	return ApplicationDTO{
		ID:              app.ID,
		OpportunityID:   app.OpportunityID,
		ApplicantID:     app.ApplicantID,
		Status:          app.Status,
		Motivation:      app.Motivation,
		SubmittedAt:     app.SubmittedAt,
		ReviewerID:      app.ReviewerID,
		ReviewStartedAt: app.ReviewStartedAt,
		ReviewedAt:      app.ReviewedAt,
		ReviewerNotes:   app.ReviewerNotes,
	}
}

// ToApplicationListResponse converts a page of applications
func ToApplicationListResponse(apps []models.Application, page, pageSize int, total int64) ApplicationListResponse {
	items := make([]ApplicationDTO, len(apps))
	for i, app := range apps {
		items[i] = ToApplicationDTO(app)
	}
	return ApplicationListResponse{Applications: items, PageMeta: ToPageMeta(page, pageSize, total)}
}

// ToAssignmentDTO converts an Assignment model to AssignmentDTO
func ToAssignmentDTO(asg models.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:             asg.ID,
		ApplicationID:  asg.ApplicationID,
		OpportunityID:  asg.OpportunityID,
		VolunteerID:    asg.VolunteerID,
		StartDate:      asg.StartDate,
		EndDate:        asg.EndDate,
		HoursCompleted: formatHours(asg.HoursCompleted),
		SupervisorID:   asg.SupervisorID,
		Status:         asg.Status,
		EndReason:      asg.EndReason,
		EndedAt:        asg.EndedAt,
	}
	if asg.HoursCommitted.Valid {
		committed := formatHours(asg.HoursCommitted.Decimal)
		dto.HoursCommitted = &committed
	}
	return dto
}

// ToAssignmentListResponse converts a page of assignments
func ToAssignmentListResponse(asgs []models.Assignment, page, pageSize int, total int64) AssignmentListResponse {
	items := make([]AssignmentDTO, len(asgs))
	for i, asg := range asgs {
		items[i] = ToAssignmentDTO(asg)
	}
	return AssignmentListResponse{Assignments: items, PageMeta: ToPageMeta(page, pageSize, total)}
}

// ToTimeLogDTO converts a TimeLog model to TimeLogDTO
func ToTimeLogDTO(log models.TimeLog) TimeLogDTO {
	return TimeLogDTO{
		ID:              log.ID,
		AssignmentID:    log.AssignmentID,
		LoggedBy:        log.LoggedBy,
		Date:            log.Date.UTC().Format(DateLayout),
		Hours:           formatHours(log.Hours),
		Description:     log.Description,
		State:           log.State(),
		ApproverID:      log.ApproverID,
		ApprovedAt:      log.ApprovedAt,
		RejectedBy:      log.RejectedBy,
		RejectedAt:      log.RejectedAt,
		RejectionReason: log.RejectionReason,
		Version:         log.Version,
	}
}

// ToTimeLogListResponse converts a page of time logs
func ToTimeLogListResponse(logs []models.TimeLog, page, pageSize int, total int64) TimeLogListResponse {
	items := make([]TimeLogDTO, len(logs))
	for i, log := range logs {
		items[i] = ToTimeLogDTO(log)
	}
	return TimeLogListResponse{TimeLogs: items, PageMeta: ToPageMeta(page, pageSize, total)}
}

// ToBulkApproveResponse converts the result of a bulk approval. codeOf maps
// a failure kind to its API error code.
func ToBulkApproveResponse(result lifecycle.BulkApproveResult, codeOf func(lifecycle.Kind) string) BulkApproveResponse {
	errs := make([]BulkApproveErrorDTO, len(result.Errors))
	for i, e := range result.Errors {
		errs[i] = BulkApproveErrorDTO{
			TimeLogID: e.TimeLogID,
			Code:      codeOf(e.Kind),
			Message:   e.Message,
		}
	}
	return BulkApproveResponse{ApprovedCount: result.ApprovedCount, Errors: errs}
}
