package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// GormOpportunityRepository is a GORM implementation of OpportunityRepository
type GormOpportunityRepository struct {
	db *gorm.DB
}

// NewOpportunityRepository creates a new OpportunityRepository
func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &GormOpportunityRepository{db: db}
}

// Create creates a new opportunity
func (r *GormOpportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	return r.db.WithContext(ctx).Create(opp).Error
}

// FindByID finds an opportunity by ID
func (r *GormOpportunityRepository) FindByID(ctx context.Context, id uint64) (*models.Opportunity, error) {
	var opp models.Opportunity
	if err := r.db.WithContext(ctx).First(&opp, id).Error; err != nil {
		return nil, err
	}
	return &opp, nil
}

// FindByIDForUpdate finds an opportunity by ID and locks the row
func (r *GormOpportunityRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*models.Opportunity, error) {
	var opp models.Opportunity
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&opp, id).Error; err != nil {
		return nil, err
	}
	return &opp, nil
}

// List retrieves opportunities with filtering and pagination
func (r *GormOpportunityRepository) List(ctx context.Context, filter OpportunityFilter) ([]models.Opportunity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Opportunity{})

	if filter.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("start_date ASC").Order("id ASC")

	var opportunities []models.Opportunity
	if err := listQuery.Find(&opportunities).Error; err != nil {
		return nil, 0, err
	}

	return opportunities, total, nil
}

// IncrementSlotsFilled adds one filled slot if capacity remains
func (r *GormOpportunityRepository) IncrementSlotsFilled(ctx context.Context, id uint64) (bool, error) {
	return conditionalUpdate(
		r.db.WithContext(ctx).Model(&models.Opportunity{}).
			Where("id = ? AND slots_filled < slots_needed", id),
		map[string]interface{}{"slots_filled": gorm.Expr("slots_filled + 1")},
	)
}

// UpdateSlotsNeeded changes the capacity unless it would drop below slots_filled
func (r *GormOpportunityRepository) UpdateSlotsNeeded(ctx context.Context, id uint64, slotsNeeded int) (bool, error) {
	return conditionalUpdate(
		r.db.WithContext(ctx).Model(&models.Opportunity{}).
			Where("id = ? AND slots_filled <= ?", id, slotsNeeded),
		map[string]interface{}{"slots_needed": slotsNeeded},
	)
}

// UpdateStatus moves the opportunity from one status to another
func (r *GormOpportunityRepository) UpdateStatus(ctx context.Context, id uint64, from, to models.OpportunityStatus) (bool, error) {
	return conditionalUpdate(
		r.db.WithContext(ctx).Model(&models.Opportunity{}).
			Where("id = ? AND status = ?", id, from),
		map[string]interface{}{"status": to},
	)
}

// SoftDeleteCascade soft deletes the opportunity and everything under it.
// Callers run it inside a transaction.
func (r *GormOpportunityRepository) SoftDeleteCascade(ctx context.Context, id uint64) error {
	db := r.db.WithContext(ctx)

	assignmentIDs := db.Model(&models.Assignment{}).Select("id").Where("opportunity_id = ?", id)
	if err := db.Where("assignment_id IN (?)", assignmentIDs).Delete(&models.TimeLog{}).Error; err != nil {
		return err
	}

	if err := db.Where("opportunity_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
		return err
	}

	// Free the pending keys so the unique index ignores deleted rows.
	if err := db.Model(&models.Application{}).
		Where("opportunity_id = ? AND pending_key IS NOT NULL", id).
		Update("pending_key", nil).Error; err != nil {
		return err
	}

	if err := db.Where("opportunity_id = ?", id).Delete(&models.Application{}).Error; err != nil {
		return err
	}

	return db.Delete(&models.Opportunity{}, id).Error
}
