package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TimeLogState string

const (
	TimeLogStatePending  TimeLogState = "pending"
	TimeLogStateApproved TimeLogState = "approved"
	TimeLogStateRejected TimeLogState = "rejected"
)

// TimeLog is a volunteer's record of hours worked on an assignment.
// Version is bumped on every write and used as an optimistic lock.
type TimeLog struct {
	ID                 uint64          `gorm:"primarykey" json:"id"`
	AssignmentID       uint64          `gorm:"not null;index" json:"assignment_id"`
	LoggedBy           uint64          `gorm:"not null" json:"logged_by"`
	Date               time.Time       `gorm:"type:date;not null" json:"date"`
	Hours              decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"hours"`
	Description        string          `gorm:"type:text" json:"description"`
	SupervisorApproved bool            `gorm:"not null;default:false" json:"supervisor_approved"`
	ApproverID         *uint64         `json:"approver_id"`
	ApprovedAt         *time.Time      `json:"approved_at"`
	RejectedBy         *uint64         `json:"rejected_by"`
	RejectedAt         *time.Time      `json:"rejected_at"`
	RejectionReason    string          `gorm:"type:text" json:"rejection_reason"`
	Version            int             `gorm:"not null;default:1" json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Assignment Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
}

func (t *TimeLog) State() TimeLogState {
	switch {
	case t.SupervisorApproved:
		return TimeLogStateApproved
	case t.RejectedAt != nil:
		return TimeLogStateRejected
	default:
		return TimeLogStatePending
	}
}
