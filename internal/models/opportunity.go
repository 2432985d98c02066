package models

import (
	"time"

	"gorm.io/gorm"
)

type OpportunityStatus string

const (
	OpportunityStatusDraft    OpportunityStatus = "draft"
	OpportunityStatusActive   OpportunityStatus = "active"
	OpportunityStatusPaused   OpportunityStatus = "paused"
	OpportunityStatusClosed   OpportunityStatus = "closed"
	OpportunityStatusArchived OpportunityStatus = "archived"
)

func (s OpportunityStatus) Valid() bool {
	switch s {
	case OpportunityStatusDraft, OpportunityStatusActive, OpportunityStatusPaused,
		OpportunityStatusClosed, OpportunityStatusArchived:
		return true
	}
	return false
}

// Opportunity is a volunteering role with a fixed number of slots.
// SlotsFilled is maintained by the lifecycle engine only.
type Opportunity struct {
	ID                  uint64            `gorm:"primarykey" json:"id"`
	OrganizationID      uint64            `gorm:"not null;index" json:"organization_id"`
	Title               string            `gorm:"type:varchar(255);not null" json:"title"`
	Description         string            `gorm:"type:text" json:"description"`
	SlotsNeeded         int               `gorm:"not null" json:"slots_needed"`
	SlotsFilled         int               `gorm:"not null;default:0" json:"slots_filled"`
	Status              OpportunityStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	ApplicationDeadline *time.Time        `json:"application_deadline"`
	StartDate           time.Time         `gorm:"not null" json:"start_date"`
	EndDate             *time.Time        `json:"end_date"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	DeletedAt           gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relations
	Organization Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Applications []Application `gorm:"foreignKey:OpportunityID" json:"applications,omitempty"`
}

// AcceptsApplications reports whether new applications may be submitted at now.
func (o *Opportunity) AcceptsApplications(now time.Time) bool {
	if o.Status != OpportunityStatusActive {
		return false
	}
	return o.ApplicationDeadline == nil || !now.After(*o.ApplicationDeadline)
}
