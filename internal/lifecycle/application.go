package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

// SubmitInput represents input for submitting an application
type SubmitInput struct {
	OpportunityID uint64
	ApplicantID   uint64
	Motivation    string
}

// AssignmentParams holds the terms of the assignment created on acceptance.
// Zero values fall back to the opportunity dates and the accepting reviewer
// as supervisor. A named supervisor must belong to the organization, and the
// volunteer can never supervise their own assignment.
type AssignmentParams struct {
	StartDate      *time.Time
	EndDate        *time.Time
	HoursCommitted *decimal.Decimal
	SupervisorID   *uint64
}

func (p AssignmentParams) build(op string, app *models.Application, opp *models.Opportunity, reviewerID uint64) (*models.Assignment, error) {
	start := opp.StartDate
	if p.StartDate != nil {
		start = *p.StartDate
	}
	end := opp.EndDate
	if p.EndDate != nil {
		end = p.EndDate
	}
	supervisor := reviewerID
	if p.SupervisorID != nil {
		supervisor = *p.SupervisorID
	}

	if supervisor == app.ApplicantID {
		return nil, newError(KindInvalidInput, op, "volunteer cannot supervise their own assignment")
	}
	if start.IsZero() {
		return nil, newError(KindInvalidInput, op, "assignment start_date is required")
	}
	if end != nil && end.Before(start) {
		return nil, newError(KindInvalidInput, op, "assignment end_date must not be before start_date")
	}

	asg := &models.Assignment{
		ApplicationID:  app.ID,
		OpportunityID:  opp.ID,
		VolunteerID:    app.ApplicantID,
		StartDate:      start,
		EndDate:        end,
		HoursCompleted: decimal.Zero,
		SupervisorID:   &supervisor,
		Status:         models.AssignmentStatusActive,
	}
	if p.HoursCommitted != nil {
		if p.HoursCommitted.IsNegative() {
			return nil, newError(KindInvalidInput, op, "hours_committed must not be negative")
		}
		asg.HoursCommitted = decimal.NewNullDecimal(p.HoursCommitted.Round(2))
	}
	return asg, nil
}

// Submit creates a pending application. Applicants submit for themselves;
// coordinators of the organization may submit on a volunteer's behalf.
func (e *Engine) Submit(ctx context.Context, actor Actor, in SubmitInput) (*models.Application, error) {
	const op = "Submit"

	var app *models.Application
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		opp, err := loadOpportunity(ctx, tx, op, in.OpportunityID, false)
		if err != nil {
			return err
		}
		if in.ApplicantID != actor.UserID && !actor.ReviewsOrganization(opp.OrganizationID) {
			return newError(KindUnauthorized, op, "cannot apply on behalf of another user")
		}

		now := e.now()
		if !opp.AcceptsApplications(now) {
			return newError(KindOpportunityClosed, op, "opportunity %d is not accepting applications", opp.ID)
		}

		pending, err := tx.Applications().HasPending(ctx, in.ApplicantID, opp.ID)
		if err != nil {
			return classify(op, "application", err)
		}
		if pending {
			return newError(KindDuplicateApplication, op, "applicant already has a pending application for opportunity %d", opp.ID)
		}

		app = &models.Application{
			OpportunityID: opp.ID,
			ApplicantID:   in.ApplicantID,
			Status:        models.ApplicationStatusPending,
			Motivation:    strings.TrimSpace(in.Motivation),
			SubmittedAt:   now,
		}
		if err := tx.Applications().Create(ctx, app); err != nil {
			// A concurrent submit won the unique pending key.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newError(KindDuplicateApplication, op, "applicant already has a pending application for opportunity %d", opp.ID)
			}
			return classify(op, "application", err)
		}

		return emit(ctx, tx, Event{
			Type:       EventApplicationSubmitted,
			EntityType: entityApplication,
			EntityID:   app.ID,
			ActorID:    actor.UserID,
			OccurredAt: now,
			Data: map[string]interface{}{
				"opportunity_id": opp.ID,
				"applicant_id":   app.ApplicantID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// StartReview marks a pending application as under review. After that the
// applicant can no longer withdraw it.
func (e *Engine) StartReview(ctx context.Context, actor Actor, applicationID uint64) (*models.Application, error) {
	const op = "StartReview"

	var app *models.Application
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		var err error
		app, err = loadApplication(ctx, tx, op, applicationID, true)
		if err != nil {
			return err
		}
		opp, err := loadOpportunity(ctx, tx, op, app.OpportunityID, false)
		if err != nil {
			return err
		}
		if !actor.ReviewsOrganization(opp.OrganizationID) {
			return newError(KindUnauthorized, op, "only organization coordinators can review applications")
		}
		if app.Status != models.ApplicationStatusPending {
			return newError(KindInvalidTransition, op, "application is %s", app.Status)
		}
		if app.ReviewStartedAt != nil {
			return nil
		}

		now := e.now()
		ok, err := tx.Applications().MarkReviewStarted(ctx, app.ID, actor.UserID, now)
		if err != nil {
			return classify(op, "application", err)
		}
		if !ok {
			return newError(KindInvalidTransition, op, "application is no longer pending")
		}

		reviewer := actor.UserID
		app.ReviewerID = &reviewer
		app.ReviewStartedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Accept accepts a pending application, fills one slot of the opportunity
// and creates the assignment, all in one transaction.
func (e *Engine) Accept(ctx context.Context, actor Actor, applicationID uint64, params AssignmentParams) (*models.Application, *models.Assignment, error) {
	const op = "Accept"

	var (
		app *models.Application
		asg *models.Assignment
	)
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		var err error
		app, err = loadApplication(ctx, tx, op, applicationID, true)
		if err != nil {
			return err
		}
		opp, err := loadOpportunity(ctx, tx, op, app.OpportunityID, false)
		if err != nil {
			return err
		}
		if !actor.ReviewsOrganization(opp.OrganizationID) {
			return newError(KindUnauthorized, op, "only organization coordinators can accept applications")
		}
		if !CanTransitionApplication(app.Status, models.ApplicationStatusAccepted) {
			return newError(KindInvalidTransition, op, "application is %s", app.Status)
		}

		asg, err = params.build(op, app, opp, actor.UserID)
		if err != nil {
			return err
		}
		if params.SupervisorID != nil && *params.SupervisorID != actor.UserID {
			member, err := tx.Members().IsMember(ctx, opp.OrganizationID, *params.SupervisorID)
			if err != nil {
				return classify(op, "organization member", err)
			}
			if !member {
				return newError(KindInvalidInput, op, "supervisor %d is not a member of organization %d", *params.SupervisorID, opp.OrganizationID)
			}
		}

		filled, err := tx.Opportunities().IncrementSlotsFilled(ctx, opp.ID)
		if err != nil {
			return classify(op, "opportunity", err)
		}
		if !filled {
			return newError(KindCapacityExceeded, op, "opportunity %d has no free slots", opp.ID)
		}

		now := e.now()
		reviewer := actor.UserID
		ok, err := tx.Applications().Resolve(ctx, app.ID, repository.ApplicationResolution{
			Status:     models.ApplicationStatusAccepted,
			ReviewerID: &reviewer,
			ReviewedAt: now,
		})
		if err != nil {
			return classify(op, "application", err)
		}
		if !ok {
			return newError(KindInvalidTransition, op, "application is no longer pending")
		}

		if err := tx.Assignments().Create(ctx, asg); err != nil {
			return classify(op, "assignment", err)
		}

		app.Status = models.ApplicationStatusAccepted
		app.PendingKey = nil
		app.ReviewerID = &reviewer
		app.ReviewedAt = &now

		return emit(ctx, tx, Event{
			Type:       EventApplicationAccepted,
			EntityType: entityApplication,
			EntityID:   app.ID,
			ActorID:    actor.UserID,
			OccurredAt: now,
			Data: map[string]interface{}{
				"opportunity_id": opp.ID,
				"applicant_id":   app.ApplicantID,
				"assignment_id":  asg.ID,
			},
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return app, asg, nil
}

// Reject rejects a pending application. A reason is required and stored as
// the reviewer notes.
func (e *Engine) Reject(ctx context.Context, actor Actor, applicationID uint64, reason string) (*models.Application, error) {
	const op = "Reject"

	var app *models.Application
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		var err error
		app, err = loadApplication(ctx, tx, op, applicationID, true)
		if err != nil {
			return err
		}
		opp, err := loadOpportunity(ctx, tx, op, app.OpportunityID, false)
		if err != nil {
			return err
		}
		if !actor.ReviewsOrganization(opp.OrganizationID) {
			return newError(KindUnauthorized, op, "only organization coordinators can reject applications")
		}
		if !CanTransitionApplication(app.Status, models.ApplicationStatusRejected) {
			return newError(KindInvalidTransition, op, "application is %s", app.Status)
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return newError(KindInvalidInput, op, "a rejection reason is required")
		}

		now := e.now()
		reviewer := actor.UserID
		ok, err := tx.Applications().Resolve(ctx, app.ID, repository.ApplicationResolution{
			Status:        models.ApplicationStatusRejected,
			ReviewerID:    &reviewer,
			ReviewedAt:    now,
			ReviewerNotes: reason,
		})
		if err != nil {
			return classify(op, "application", err)
		}
		if !ok {
			return newError(KindInvalidTransition, op, "application is no longer pending")
		}

		app.Status = models.ApplicationStatusRejected
		app.PendingKey = nil
		app.ReviewerID = &reviewer
		app.ReviewedAt = &now
		app.ReviewerNotes = reason

		return emit(ctx, tx, Event{
			Type:       EventApplicationRejected,
			EntityType: entityApplication,
			EntityID:   app.ID,
			ActorID:    actor.UserID,
			OccurredAt: now,
			Data: map[string]interface{}{
				"opportunity_id": opp.ID,
				"applicant_id":   app.ApplicantID,
				"reason":         reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Withdraw withdraws a pending application. The applicant may withdraw until
// review starts; coordinators of the organization may withdraw at any point
// while it is pending.
func (e *Engine) Withdraw(ctx context.Context, actor Actor, applicationID uint64) (*models.Application, error) {
	const op = "Withdraw"

	var app *models.Application
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		var err error
		app, err = loadApplication(ctx, tx, op, applicationID, true)
		if err != nil {
			return err
		}
		opp, err := loadOpportunity(ctx, tx, op, app.OpportunityID, false)
		if err != nil {
			return err
		}

		override := actor.ReviewsOrganization(opp.OrganizationID)
		if app.ApplicantID != actor.UserID && !override {
			return newError(KindUnauthorized, op, "only the applicant can withdraw an application")
		}
		if !CanTransitionApplication(app.Status, models.ApplicationStatusWithdrawn) {
			return newError(KindInvalidTransition, op, "application is %s", app.Status)
		}
		if app.ReviewStartedAt != nil && !override {
			return newError(KindInvalidTransition, op, "application is under review")
		}

		now := e.now()
		ok, err := tx.Applications().Resolve(ctx, app.ID, repository.ApplicationResolution{
			Status:     models.ApplicationStatusWithdrawn,
			ReviewerID: app.ReviewerID,
			ReviewedAt: now,
		})
		if err != nil {
			return classify(op, "application", err)
		}
		if !ok {
			return newError(KindInvalidTransition, op, "application is no longer pending")
		}

		app.Status = models.ApplicationStatusWithdrawn
		app.PendingKey = nil
		app.ReviewedAt = &now

		return emit(ctx, tx, Event{
			Type:       EventApplicationWithdrawn,
			EntityType: entityApplication,
			EntityID:   app.ID,
			ActorID:    actor.UserID,
			OccurredAt: now,
			Data: map[string]interface{}{
				"opportunity_id": opp.ID,
				"applicant_id":   app.ApplicantID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// GetApplication returns an application visible to the actor.
func (e *Engine) GetApplication(ctx context.Context, actor Actor, id uint64) (*models.Application, error) {
	const op = "GetApplication"

	app, err := e.getApplication(ctx, actor, op, id)
	if err := e.read(op, actor, err); err != nil {
		return nil, err
	}
	return app, nil
}

func (e *Engine) getApplication(ctx context.Context, actor Actor, op string, id uint64) (*models.Application, error) {
	app, err := loadApplication(ctx, e.store, op, id, false)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID == actor.UserID {
		return app, nil
	}
	opp, err := loadOpportunity(ctx, e.store, op, app.OpportunityID, false)
	if err != nil {
		return nil, err
	}
	if !actor.ReviewsOrganization(opp.OrganizationID) {
		return nil, newError(KindUnauthorized, op, "application belongs to another user")
	}
	return app, nil
}

// ListApplications lists applications. Listing by opportunity is reserved
// for coordinators; other callers only see their own applications.
func (e *Engine) ListApplications(ctx context.Context, actor Actor, filter repository.ApplicationFilter) ([]models.Application, int64, error) {
	const op = "ListApplications"

	apps, total, err := e.listApplications(ctx, actor, op, filter)
	if err := e.read(op, actor, err); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

func (e *Engine) listApplications(ctx context.Context, actor Actor, op string, filter repository.ApplicationFilter) ([]models.Application, int64, error) {
	own := filter.ApplicantID != nil && *filter.ApplicantID == actor.UserID
	if !own {
		if filter.OpportunityID == nil {
			return nil, 0, newError(KindInvalidInput, op, "opportunity_id or own applicant_id is required")
		}
		opp, err := loadOpportunity(ctx, e.store, op, *filter.OpportunityID, false)
		if err != nil {
			return nil, 0, err
		}
		if !actor.ReviewsOrganization(opp.OrganizationID) {
			return nil, 0, newError(KindUnauthorized, op, "only organization coordinators can list applications")
		}
	}
	return e.store.Applications().List(ctx, filter)
}
