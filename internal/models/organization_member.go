package models

import "time"

type OrganizationRole string

const (
	RoleOwner       OrganizationRole = "owner"
	RoleCoordinator OrganizationRole = "coordinator"
	RoleMember      OrganizationRole = "member"
)

// CanReview reports whether the role may review applications and manage
// opportunities on behalf of the organization.
func (r OrganizationRole) CanReview() bool {
	return r == RoleOwner || r == RoleCoordinator
}

func (r OrganizationRole) Valid() bool {
	switch r {
	case RoleOwner, RoleCoordinator, RoleMember:
		return true
	}
	return false
}

type OrganizationMember struct {
	OrganizationID uint64           `gorm:"primarykey" json:"organization_id"`
	UserID         uint64           `gorm:"primarykey" json:"user_id"`
	Role           OrganizationRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt       time.Time        `json:"joined_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
