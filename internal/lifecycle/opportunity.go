package lifecycle

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

// CreateOpportunityInput represents input for creating an opportunity
type CreateOpportunityInput struct {
	OrganizationID      uint64
	Title               string
	Description         string
	SlotsNeeded         int
	Status              models.OpportunityStatus
	ApplicationDeadline *time.Time
	StartDate           time.Time
	EndDate             *time.Time
}

func (in CreateOpportunityInput) validate(op string) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return newError(KindInvalidInput, op, "title is required")
	case in.SlotsNeeded < 1:
		return newError(KindInvalidInput, op, "slots_needed must be at least 1")
	case in.StartDate.IsZero():
		return newError(KindInvalidInput, op, "start_date is required")
	case in.EndDate != nil && in.EndDate.Before(in.StartDate):
		return newError(KindInvalidInput, op, "end_date must not be before start_date")
	case in.Status != "" && !in.Status.Valid():
		return newError(KindInvalidInput, op, "unknown status %q", in.Status)
	}
	return nil
}

// CreateOpportunity creates an opportunity in draft unless another status is given.
func (e *Engine) CreateOpportunity(ctx context.Context, actor Actor, in CreateOpportunityInput) (*models.Opportunity, error) {
	const op = "CreateOpportunity"

	var opp *models.Opportunity
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		if !actor.ReviewsOrganization(in.OrganizationID) {
			return newError(KindUnauthorized, op, "only organization coordinators can create opportunities")
		}
		if err := in.validate(op); err != nil {
			return err
		}

		status := in.Status
		if status == "" {
			status = models.OpportunityStatusDraft
		}

		opp = &models.Opportunity{
			OrganizationID:      in.OrganizationID,
			Title:               strings.TrimSpace(in.Title),
			Description:         in.Description,
			SlotsNeeded:         in.SlotsNeeded,
			Status:              status,
			ApplicationDeadline: in.ApplicationDeadline,
			StartDate:           in.StartDate,
			EndDate:             in.EndDate,
		}
		return classify(op, "opportunity", tx.Opportunities().Create(ctx, opp))
	})
	if err != nil {
		return nil, err
	}
	return opp, nil
}

// SetOpportunityStatus changes the status of an opportunity. Archived is final.
func (e *Engine) SetOpportunityStatus(ctx context.Context, actor Actor, id uint64, status models.OpportunityStatus) (*models.Opportunity, error) {
	const op = "SetOpportunityStatus"

	var opp *models.Opportunity
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		if !status.Valid() {
			return newError(KindInvalidInput, op, "unknown status %q", status)
		}

		var err error
		opp, err = loadOpportunity(ctx, tx, op, id, true)
		if err != nil {
			return err
		}
		if !actor.ReviewsOrganization(opp.OrganizationID) {
			return newError(KindUnauthorized, op, "only organization coordinators can change opportunities")
		}
		if opp.Status == status {
			return nil
		}
		if !CanTransitionOpportunity(opp.Status, status) {
			return newError(KindInvalidTransition, op, "cannot move opportunity from %s to %s", opp.Status, status)
		}

		ok, err := tx.Opportunities().UpdateStatus(ctx, opp.ID, opp.Status, status)
		if err != nil {
			return classify(op, "opportunity", err)
		}
		if !ok {
			return newError(KindInvalidTransition, op, "opportunity status changed concurrently")
		}
		opp.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opp, nil
}

// UpdateCapacity changes slots_needed. The new value may not be lower than
// the number of slots already filled.
func (e *Engine) UpdateCapacity(ctx context.Context, actor Actor, id uint64, slotsNeeded int) (*models.Opportunity, error) {
	const op = "UpdateCapacity"

	var opp *models.Opportunity
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		if slotsNeeded < 1 {
			return newError(KindInvalidInput, op, "slots_needed must be at least 1")
		}

		var err error
		opp, err = loadOpportunity(ctx, tx, op, id, false)
		if err != nil {
			return err
		}
		if !actor.ReviewsOrganization(opp.OrganizationID) {
			return newError(KindUnauthorized, op, "only organization coordinators can change opportunities")
		}

		ok, err := tx.Opportunities().UpdateSlotsNeeded(ctx, opp.ID, slotsNeeded)
		if err != nil {
			return classify(op, "opportunity", err)
		}
		if !ok {
			return newError(KindCapacityExceeded, op, "slots_needed cannot be lower than the %d filled slots", opp.SlotsFilled)
		}

		opp, err = loadOpportunity(ctx, tx, op, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return opp, nil
}

// DeleteOpportunity soft deletes an opportunity with its applications,
// assignments and time logs. Active assignments always block deletion;
// undecided time logs block it unless force is set.
func (e *Engine) DeleteOpportunity(ctx context.Context, actor Actor, id uint64, force bool) error {
	const op = "DeleteOpportunity"

	return e.run(ctx, op, actor, func(tx repository.Store) error {
		opp, err := loadOpportunity(ctx, tx, op, id, true)
		if err != nil {
			return err
		}
		if !actor.ReviewsOrganization(opp.OrganizationID) {
			return newError(KindUnauthorized, op, "only organization coordinators can delete opportunities")
		}

		active, err := tx.Assignments().CountByOpportunity(ctx, opp.ID, models.AssignmentStatusActive)
		if err != nil {
			return classify(op, "assignment", err)
		}
		if active > 0 {
			return newError(KindResourceInUse, op, "opportunity has %d active assignments", active)
		}

		pending, err := tx.TimeLogs().CountPendingByOpportunity(ctx, opp.ID)
		if err != nil {
			return classify(op, "time log", err)
		}
		if pending > 0 && !force {
			return newError(KindResourceInUse, op, "opportunity has %d time logs awaiting approval", pending)
		}

		e.logger.Info("Deleting opportunity",
			zap.Uint64("opportunity_id", opp.ID),
			zap.Int64("pending_time_logs", pending),
			zap.Bool("force", force),
		)
		return classify(op, "opportunity", tx.Opportunities().SoftDeleteCascade(ctx, opp.ID))
	})
}

// GetOpportunity returns an opportunity by ID. Drafts are reported as not
// found to anyone who cannot review the organization.
func (e *Engine) GetOpportunity(ctx context.Context, actor Actor, id uint64) (*models.Opportunity, error) {
	const op = "GetOpportunity"

	opp, err := loadOpportunity(ctx, e.store, op, id, false)
	if err == nil && opp.Status == models.OpportunityStatusDraft && !actor.ReviewsOrganization(opp.OrganizationID) {
		err = newError(KindNotFound, op, "opportunity not found")
	}
	if err := e.read(op, actor, err); err != nil {
		return nil, err
	}
	return opp, nil
}

// ListOpportunities lists opportunities. Drafts are only listed for
// coordinators of the organization.
func (e *Engine) ListOpportunities(ctx context.Context, actor Actor, filter repository.OpportunityFilter) ([]models.Opportunity, int64, error) {
	const op = "ListOpportunities"

	if filter.OrganizationID == nil || !actor.ReviewsOrganization(*filter.OrganizationID) {
		if filter.Status == nil {
			active := models.OpportunityStatusActive
			filter.Status = &active
		} else if *filter.Status == models.OpportunityStatusDraft {
			return nil, 0, e.read(op, actor, newError(KindUnauthorized, op, "draft opportunities are visible to coordinators only"))
		}
	}

	opps, total, err := e.store.Opportunities().List(ctx, filter)
	if err := e.read(op, actor, err); err != nil {
		return nil, 0, err
	}
	return opps, total, nil
}
