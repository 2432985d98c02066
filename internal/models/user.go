package models

import (
	"time"

	"gorm.io/gorm"
)

// User is provisioned by the identity provider; this service never stores
// credentials.
type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	DisplayName  string         `gorm:"type:varchar(255)" json:"display_name"`
	IsSuperAdmin bool           `gorm:"not null;default:false" json:"is_super_admin"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Applications  []Application        `gorm:"foreignKey:ApplicantID" json:"-"`
	Assignments   []Assignment         `gorm:"foreignKey:VolunteerID" json:"-"`
	Organizations []OrganizationMember `gorm:"foreignKey:UserID" json:"-"`
}
