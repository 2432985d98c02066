package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected, ApplicationStatusWithdrawn:
		return true
	}
	return false
}

type Application struct {
	ID              uint64            `gorm:"primarykey" json:"id"`
	OpportunityID   uint64            `gorm:"not null;index" json:"opportunity_id"`
	ApplicantID     uint64            `gorm:"not null;index" json:"applicant_id"`
	Status          ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Motivation      string            `gorm:"type:text" json:"motivation"`
	// PendingKey is "<applicant>:<opportunity>" while pending and NULL
	// otherwise, so the unique index admits one pending row per pair.
	PendingKey      *string        `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	SubmittedAt     time.Time      `gorm:"not null" json:"submitted_at"`
	ReviewerID      *uint64        `json:"reviewer_id"`
	ReviewStartedAt *time.Time     `json:"review_started_at"`
	ReviewedAt      *time.Time     `json:"reviewed_at"`
	ReviewerNotes   string         `gorm:"type:text" json:"reviewer_notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Opportunity Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
	Applicant   User        `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
}

// PendingApplicationKey returns the uniqueness key for a pending application.
func PendingApplicationKey(applicantID, opportunityID uint64) string {
	return fmt.Sprintf("%d:%d", applicantID, opportunityID)
}
