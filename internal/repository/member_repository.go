package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// GormMemberRepository is a GORM implementation of MemberRepository
type GormMemberRepository struct {
	db *gorm.DB
}

// IsMember reports whether the user belongs to the organization in any role
func (r *GormMemberRepository) IsMember(ctx context.Context, organizationID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Count(&count).Error
	return count > 0, err
}
