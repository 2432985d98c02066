package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OutboxEvent is a domain event written in the same transaction as the state
// change it describes and relayed to the event stream afterwards.
type OutboxEvent struct {
	ID          uint64         `gorm:"primarykey"`
	EventID     uuid.UUID      `gorm:"type:char(36);uniqueIndex;not null"`
	Type        string         `gorm:"type:varchar(64);index;not null"`
	EntityType  string         `gorm:"type:varchar(32);not null"`
	EntityID    uint64         `gorm:"not null"`
	ActorID     uint64         `gorm:"not null"`
	Payload     datatypes.JSON
	OccurredAt  time.Time  `gorm:"not null"`
	PublishedAt *time.Time `gorm:"index"`
	Attempts    int        `gorm:"not null;default:0"`
	LastError   string     `gorm:"type:text"`
}
