package lifecycle

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

type EventType string

const (
	EventApplicationSubmitted EventType = "ApplicationSubmitted"
	EventApplicationAccepted  EventType = "ApplicationAccepted"
	EventApplicationRejected  EventType = "ApplicationRejected"
	EventApplicationWithdrawn EventType = "ApplicationWithdrawn"
	EventAssignmentCompleted  EventType = "AssignmentCompleted"
	EventAssignmentTerminated EventType = "AssignmentTerminated"
	EventTimeLogApproved      EventType = "TimeLogApproved"
	EventTimeLogRejected      EventType = "TimeLogRejected"
	EventTimeLogUnapproved    EventType = "TimeLogUnapproved"
)

const (
	entityApplication = "application"
	entityAssignment  = "assignment"
	entityTimeLog     = "time_log"
)

// Event is the notification emitted after a committed transition.
type Event struct {
	ID         uuid.UUID              `json:"event_id"`
	Type       EventType              `json:"type"`
	EntityType string                 `json:"entity_type"`
	EntityID   uint64                 `json:"entity_id"`
	ActorID    uint64                 `json:"actor_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// emit stores the event in the outbox of the current transaction so it is
// published only if the transition commits.
func emit(ctx context.Context, tx repository.Store, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return tx.Outbox().Add(ctx, &models.OutboxEvent{
		EventID:    event.ID,
		Type:       string(event.Type),
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		ActorID:    event.ActorID,
		Payload:    datatypes.JSON(payload),
		OccurredAt: event.OccurredAt,
	})
}
