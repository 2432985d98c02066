package lifecycle

import (
	"context"
	"strings"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

// CompleteAssignment marks an active assignment as completed.
func (e *Engine) CompleteAssignment(ctx context.Context, actor Actor, assignmentID uint64) (*models.Assignment, error) {
	return e.endAssignment(ctx, actor, "CompleteAssignment", assignmentID, models.AssignmentStatusCompleted, "")
}

// TerminateAssignment ends an active assignment early. A reason is required.
func (e *Engine) TerminateAssignment(ctx context.Context, actor Actor, assignmentID uint64, reason string) (*models.Assignment, error) {
	return e.endAssignment(ctx, actor, "TerminateAssignment", assignmentID, models.AssignmentStatusTerminated, reason)
}

func (e *Engine) endAssignment(ctx context.Context, actor Actor, op string, id uint64, status models.AssignmentStatus, reason string) (*models.Assignment, error) {
	var asg *models.Assignment
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		var err error
		asg, err = loadAssignment(ctx, tx, op, id, true)
		if err != nil {
			return err
		}
		opp, err := loadOpportunity(ctx, tx, op, asg.OpportunityID, false)
		if err != nil {
			return err
		}
		if !actor.CanManageAssignment(asg, opp) {
			return newError(KindUnauthorized, op, "only the supervisor or organization coordinators can end an assignment")
		}
		if !CanTransitionAssignment(asg.Status, status) {
			return newError(KindInvalidTransition, op, "assignment is %s", asg.Status)
		}
		reason = strings.TrimSpace(reason)
		if status == models.AssignmentStatusTerminated && reason == "" {
			return newError(KindInvalidInput, op, "a termination reason is required")
		}

		now := e.now()
		ok, err := tx.Assignments().End(ctx, asg.ID, status, reason, now)
		if err != nil {
			return classify(op, "assignment", err)
		}
		if !ok {
			return newError(KindInvalidTransition, op, "assignment is no longer active")
		}

		asg.Status = status
		asg.EndReason = reason
		asg.EndedAt = &now

		event := Event{
			Type:       EventAssignmentCompleted,
			EntityType: entityAssignment,
			EntityID:   asg.ID,
			ActorID:    actor.UserID,
			OccurredAt: now,
			Data: map[string]interface{}{
				"opportunity_id":  asg.OpportunityID,
				"volunteer_id":    asg.VolunteerID,
				"hours_completed": asg.HoursCompleted.StringFixed(2),
			},
		}
		if status == models.AssignmentStatusTerminated {
			event.Type = EventAssignmentTerminated
			event.Data["reason"] = reason
		}
		return emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return asg, nil
}

// GetAssignment returns an assignment visible to the actor.
func (e *Engine) GetAssignment(ctx context.Context, actor Actor, id uint64) (*models.Assignment, error) {
	const op = "GetAssignment"

	asg, err := e.viewAssignment(ctx, actor, op, id)
	if err := e.read(op, actor, err); err != nil {
		return nil, err
	}
	return asg, nil
}

func (e *Engine) viewAssignment(ctx context.Context, actor Actor, op string, id uint64) (*models.Assignment, error) {
	asg, err := loadAssignment(ctx, e.store, op, id, false)
	if err != nil {
		return nil, err
	}
	opp, err := loadOpportunity(ctx, e.store, op, asg.OpportunityID, false)
	if err != nil {
		return nil, err
	}
	if !actor.CanViewAssignment(asg, opp) {
		return nil, newError(KindUnauthorized, op, "assignment belongs to another volunteer")
	}
	return asg, nil
}

// ListAssignments lists assignments of an opportunity for coordinators, or
// the actor's own assignments.
func (e *Engine) ListAssignments(ctx context.Context, actor Actor, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	const op = "ListAssignments"

	asgs, total, err := e.listAssignments(ctx, actor, op, filter)
	if err := e.read(op, actor, err); err != nil {
		return nil, 0, err
	}
	return asgs, total, nil
}

func (e *Engine) listAssignments(ctx context.Context, actor Actor, op string, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	own := filter.VolunteerID != nil && *filter.VolunteerID == actor.UserID
	if !own {
		if filter.OpportunityID == nil {
			return nil, 0, newError(KindInvalidInput, op, "opportunity_id or own volunteer_id is required")
		}
		opp, err := loadOpportunity(ctx, e.store, op, *filter.OpportunityID, false)
		if err != nil {
			return nil, 0, err
		}
		if !actor.ReviewsOrganization(opp.OrganizationID) {
			return nil, 0, newError(KindUnauthorized, op, "only organization coordinators can list assignments")
		}
	}
	return e.store.Assignments().List(ctx, filter)
}
