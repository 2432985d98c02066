package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentStatusActive     AssignmentStatus = "active"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusTerminated AssignmentStatus = "terminated"
)

// Assignment exists exactly when its application has been accepted.
// HoursCompleted is the sum of approved time log hours.
type Assignment struct {
	ID             uint64              `gorm:"primarykey" json:"id"`
	ApplicationID  uint64              `gorm:"not null;uniqueIndex" json:"application_id"`
	OpportunityID  uint64              `gorm:"not null;index" json:"opportunity_id"`
	VolunteerID    uint64              `gorm:"not null;index" json:"volunteer_id"`
	StartDate      time.Time           `gorm:"not null" json:"start_date"`
	EndDate        *time.Time          `json:"end_date"`
	HoursCommitted decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"hours_committed"`
	HoursCompleted decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"hours_completed"`
	SupervisorID   *uint64             `gorm:"index" json:"supervisor_id"`
	Status         AssignmentStatus    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	EndReason      string              `gorm:"type:text" json:"end_reason"`
	EndedAt        *time.Time          `json:"ended_at"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`

	// Relations
	Application Application `gorm:"foreignKey:ApplicationID" json:"-"`
	Opportunity Opportunity `gorm:"foreignKey:OpportunityID" json:"-"`
	Volunteer   User        `gorm:"foreignKey:VolunteerID" json:"-"`
	TimeLogs    []TimeLog   `gorm:"foreignKey:AssignmentID" json:"time_logs,omitempty"`
}
