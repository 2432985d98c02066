package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

// LogTimeInput represents input for recording hours on an assignment
type LogTimeInput struct {
	AssignmentID uint64
	Date         time.Time
	Hours        decimal.Decimal
	Description  string
}

// UpdateTimeLogInput holds the editable fields of a pending time log.
// Nil fields are left unchanged.
type UpdateTimeLogInput struct {
	Date        *time.Time
	Hours       *decimal.Decimal
	Description *string
}

// BulkApproveResult reports the outcome of BulkApprove.
type BulkApproveResult struct {
	ApprovedCount int
	Errors        []BulkApproveError
}

// BulkApproveError describes why one time log was not approved.
type BulkApproveError struct {
	TimeLogID uint64
	Kind      Kind
	Message   string
}

// LogTime records hours worked on an active assignment.
func (e *Engine) LogTime(ctx context.Context, actor Actor, in LogTimeInput) (*models.TimeLog, error) {
	const op = "LogTime"

	var log *models.TimeLog
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		hours, ok := NormalizeHours(in.Hours)
		if !ok {
			return newError(KindInvalidHours, op, "hours must be greater than 0 and at most %d, got %s", maxHours.IntPart(), in.Hours.String())
		}
		if in.Date.IsZero() {
			return newError(KindInvalidInput, op, "date is required")
		}

		asg, err := loadAssignment(ctx, tx, op, in.AssignmentID, true)
		if err != nil {
			return err
		}
		if !actor.CanLogTime(asg) {
			return newError(KindUnauthorized, op, "only the volunteer or supervisor can log time")
		}
		if asg.Status != models.AssignmentStatusActive {
			return newError(KindAssignmentNotActive, op, "assignment is %s", asg.Status)
		}

		log = &models.TimeLog{
			AssignmentID: asg.ID,
			LoggedBy:     actor.UserID,
			Date:         in.Date.UTC().Truncate(24 * time.Hour),
			Hours:        hours,
			Description:  strings.TrimSpace(in.Description),
			Version:      1,
		}
		return classify(op, "time log", tx.TimeLogs().Create(ctx, log))
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// lockTimeLog loads a time log with its assignment, both locked.
func lockTimeLog(ctx context.Context, tx repository.Store, op string, id uint64) (*models.TimeLog, *models.Assignment, error) {
	log, err := loadTimeLog(ctx, tx, op, id, true)
	if err != nil {
		return nil, nil, err
	}
	asg, err := loadAssignment(ctx, tx, op, log.AssignmentID, true)
	if err != nil {
		return nil, nil, err
	}
	return log, asg, nil
}

// Approve approves a pending time log and adds its hours to the assignment.
// Approval is still possible after the assignment has ended.
func (e *Engine) Approve(ctx context.Context, actor Actor, timeLogID uint64) (*models.TimeLog, error) {
	const op = "Approve"

	var log *models.TimeLog
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		var (
			asg *models.Assignment
			err error
		)
		log, asg, err = lockTimeLog(ctx, tx, op, timeLogID)
		if err != nil {
			return err
		}
		if !actor.CanApproveTimeLogs(asg) {
			return newError(KindUnauthorized, op, "only the supervisor can approve time logs")
		}
		switch log.State() {
		case models.TimeLogStateApproved:
			return newError(KindAlreadyApproved, op, "time log %d is already approved", log.ID)
		case models.TimeLogStateRejected:
			return newError(KindInvalidTransition, op, "time log %d was rejected", log.ID)
		}

		now := e.now()
		approver := actor.UserID
		ok, err := tx.TimeLogs().UpdateVersioned(ctx, log.ID, log.Version, map[string]interface{}{
			"supervisor_approved": true,
			"approver_id":         approver,
			"approved_at":         now,
		})
		if err != nil {
			return classify(op, "time log", err)
		}
		if !ok {
			return newError(KindAlreadyApproved, op, "time log %d changed concurrently", log.ID)
		}

		if err := tx.Assignments().AddHoursCompleted(ctx, asg.ID, log.Hours); err != nil {
			return classify(op, "assignment", err)
		}

		log.SupervisorApproved = true
		log.ApproverID = &approver
		log.ApprovedAt = &now
		log.Version++

		return emit(ctx, tx, Event{
			Type:       EventTimeLogApproved,
			EntityType: entityTimeLog,
			EntityID:   log.ID,
			ActorID:    actor.UserID,
			OccurredAt: now,
			Data: map[string]interface{}{
				"assignment_id": asg.ID,
				"hours":         log.Hours.StringFixed(2),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// Unapprove reverts an approval and subtracts the hours from the assignment.
func (e *Engine) Unapprove(ctx context.Context, actor Actor, timeLogID uint64) (*models.TimeLog, error) {
	const op = "Unapprove"

	var log *models.TimeLog
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		var (
			asg *models.Assignment
			err error
		)
		log, asg, err = lockTimeLog(ctx, tx, op, timeLogID)
		if err != nil {
			return err
		}
		if !actor.CanApproveTimeLogs(asg) {
			return newError(KindUnauthorized, op, "only the supervisor can unapprove time logs")
		}
		if log.State() != models.TimeLogStateApproved {
			return newError(KindInvalidTransition, op, "time log %d is not approved", log.ID)
		}

		ok, err := tx.TimeLogs().UpdateVersioned(ctx, log.ID, log.Version, map[string]interface{}{
			"supervisor_approved": false,
			"approver_id":         nil,
			"approved_at":         nil,
		})
		if err != nil {
			return classify(op, "time log", err)
		}
		if !ok {
			return newError(KindInvalidTransition, op, "time log %d changed concurrently", log.ID)
		}

		ok, err = tx.Assignments().SubtractHoursCompleted(ctx, asg.ID, log.Hours)
		if err != nil {
			return classify(op, "assignment", err)
		}
		if !ok {
			e.metrics.underflows.Inc()
			if !e.clampUnderflow {
				return newError(KindCounterUnderflow, op, "assignment %d has %s hours completed, cannot subtract %s",
					asg.ID, asg.HoursCompleted.StringFixed(2), log.Hours.StringFixed(2))
			}
			e.logger.Error("Clamping hours_completed to zero",
				zap.Uint64("assignment_id", asg.ID),
				zap.Uint64("time_log_id", log.ID),
				zap.String("hours_completed", asg.HoursCompleted.StringFixed(2)),
				zap.String("hours", log.Hours.StringFixed(2)),
			)
			if err := tx.Assignments().ResetHoursCompleted(ctx, asg.ID); err != nil {
				return classify(op, "assignment", err)
			}
		}

		log.SupervisorApproved = false
		log.ApproverID = nil
		log.ApprovedAt = nil
		log.Version++

		return emit(ctx, tx, Event{
			Type:       EventTimeLogUnapproved,
			EntityType: entityTimeLog,
			EntityID:   log.ID,
			ActorID:    actor.UserID,
			OccurredAt: e.now(),
			Data: map[string]interface{}{
				"assignment_id": asg.ID,
				"hours":         log.Hours.StringFixed(2),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// RejectTimeLog marks a pending time log as rejected. Rejected logs are kept
// and never count towards hours_completed.
func (e *Engine) RejectTimeLog(ctx context.Context, actor Actor, timeLogID uint64, reason string) (*models.TimeLog, error) {
	const op = "RejectTimeLog"

	var log *models.TimeLog
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		var (
			asg *models.Assignment
			err error
		)
		log, asg, err = lockTimeLog(ctx, tx, op, timeLogID)
		if err != nil {
			return err
		}
		if !actor.CanApproveTimeLogs(asg) {
			return newError(KindUnauthorized, op, "only the supervisor can reject time logs")
		}
		switch log.State() {
		case models.TimeLogStateApproved:
			return newError(KindAlreadyApproved, op, "time log %d is already approved", log.ID)
		case models.TimeLogStateRejected:
			return newError(KindInvalidTransition, op, "time log %d is already rejected", log.ID)
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return newError(KindInvalidInput, op, "a rejection reason is required")
		}

		now := e.now()
		rejecter := actor.UserID
		ok, err := tx.TimeLogs().UpdateVersioned(ctx, log.ID, log.Version, map[string]interface{}{
			"rejected_by":      rejecter,
			"rejected_at":      now,
			"rejection_reason": reason,
		})
		if err != nil {
			return classify(op, "time log", err)
		}
		if !ok {
			return newError(KindInvalidTransition, op, "time log %d changed concurrently", log.ID)
		}

		log.RejectedBy = &rejecter
		log.RejectedAt = &now
		log.RejectionReason = reason
		log.Version++

		return emit(ctx, tx, Event{
			Type:       EventTimeLogRejected,
			EntityType: entityTimeLog,
			EntityID:   log.ID,
			ActorID:    actor.UserID,
			OccurredAt: now,
			Data: map[string]interface{}{
				"assignment_id": asg.ID,
				"reason":        reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// BulkApprove approves each time log in its own transaction. Failures are
// collected per entry and never abort the batch.
func (e *Engine) BulkApprove(ctx context.Context, actor Actor, timeLogIDs []uint64) BulkApproveResult {
	result := BulkApproveResult{Errors: []BulkApproveError{}}

	seen := make(map[uint64]bool, len(timeLogIDs))
	for _, id := range timeLogIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		if _, err := e.Approve(ctx, actor, id); err != nil {
			item := BulkApproveError{TimeLogID: id, Kind: KindOf(err), Message: err.Error()}
			var lerr *Error
			if errors.As(err, &lerr) {
				item.Message = lerr.Message
			}
			result.Errors = append(result.Errors, item)
			continue
		}
		result.ApprovedCount++
	}

	e.logger.Info("Bulk approval finished",
		zap.Uint64("actor_id", actor.UserID),
		zap.Int("requested", len(timeLogIDs)),
		zap.Int("approved", result.ApprovedCount),
		zap.Int("failed", len(result.Errors)),
	)
	return result
}

// UpdateTimeLog edits a pending time log.
func (e *Engine) UpdateTimeLog(ctx context.Context, actor Actor, timeLogID uint64, in UpdateTimeLogInput) (*models.TimeLog, error) {
	const op = "UpdateTimeLog"

	var log *models.TimeLog
	err := e.run(ctx, op, actor, func(tx repository.Store) error {
		var (
			asg *models.Assignment
			err error
		)
		log, asg, err = lockTimeLog(ctx, tx, op, timeLogID)
		if err != nil {
			return err
		}
		if err := checkPendingEdit(op, actor, log, asg); err != nil {
			return err
		}

		fields := map[string]interface{}{}
		if in.Hours != nil {
			hours, ok := NormalizeHours(*in.Hours)
			if !ok {
				return newError(KindInvalidHours, op, "hours must be greater than 0 and at most %d, got %s", maxHours.IntPart(), in.Hours.String())
			}
			fields["hours"] = hours
			log.Hours = hours
		}
		if in.Date != nil {
			if in.Date.IsZero() {
				return newError(KindInvalidInput, op, "date is required")
			}
			date := in.Date.UTC().Truncate(24 * time.Hour)
			fields["date"] = date
			log.Date = date
		}
		if in.Description != nil {
			description := strings.TrimSpace(*in.Description)
			fields["description"] = description
			log.Description = description
		}
		if len(fields) == 0 {
			return nil
		}

		ok, err := tx.TimeLogs().UpdateVersioned(ctx, log.ID, log.Version, fields)
		if err != nil {
			return classify(op, "time log", err)
		}
		if !ok {
			return newError(KindInvalidTransition, op, "time log %d changed concurrently", log.ID)
		}
		log.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// DeleteTimeLog removes a pending time log.
func (e *Engine) DeleteTimeLog(ctx context.Context, actor Actor, timeLogID uint64) error {
	const op = "DeleteTimeLog"

	return e.run(ctx, op, actor, func(tx repository.Store) error {
		log, asg, err := lockTimeLog(ctx, tx, op, timeLogID)
		if err != nil {
			return err
		}
		if err := checkPendingEdit(op, actor, log, asg); err != nil {
			return err
		}
		return classify(op, "time log", tx.TimeLogs().Delete(ctx, log.ID))
	})
}

func checkPendingEdit(op string, actor Actor, log *models.TimeLog, asg *models.Assignment) error {
	if log.LoggedBy != actor.UserID && !actor.CanApproveTimeLogs(asg) {
		return newError(KindUnauthorized, op, "only the author or supervisor can change a time log")
	}
	switch log.State() {
	case models.TimeLogStateApproved:
		return newError(KindAlreadyApproved, op, "time log %d is already approved", log.ID)
	case models.TimeLogStateRejected:
		return newError(KindInvalidTransition, op, "time log %d was rejected", log.ID)
	}
	return nil
}

// GetTimeLog returns a time log whose assignment is visible to the actor.
func (e *Engine) GetTimeLog(ctx context.Context, actor Actor, id uint64) (*models.TimeLog, error) {
	const op = "GetTimeLog"

	log, err := loadTimeLog(ctx, e.store, op, id, false)
	if err == nil {
		_, err = e.viewAssignment(ctx, actor, op, log.AssignmentID)
	}
	if err := e.read(op, actor, err); err != nil {
		return nil, err
	}
	return log, nil
}

// ListTimeLogs lists the time logs of an assignment, newest first.
func (e *Engine) ListTimeLogs(ctx context.Context, actor Actor, assignmentID uint64, page, pageSize int) ([]models.TimeLog, int64, error) {
	const op = "ListTimeLogs"

	var (
		logs  []models.TimeLog
		total int64
	)
	_, err := e.viewAssignment(ctx, actor, op, assignmentID)
	if err == nil {
		logs, total, err = e.store.TimeLogs().ListByAssignment(ctx, assignmentID, page, pageSize)
	}
	if err := e.read(op, actor, err); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
