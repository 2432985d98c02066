package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// GormAssignmentRepository is a GORM implementation of AssignmentRepository
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// Create creates a new assignment
func (r *GormAssignmentRepository) Create(ctx context.Context, asg *models.Assignment) error {
	return r.db.WithContext(ctx).Create(asg).Error
}

// FindByID finds an assignment by ID
func (r *GormAssignmentRepository) FindByID(ctx context.Context, id uint64) (*models.Assignment, error) {
	var asg models.Assignment
	if err := r.db.WithContext(ctx).First(&asg, id).Error; err != nil {
		return nil, err
	}
	return &asg, nil
}

// FindByIDForUpdate finds an assignment by ID and locks the row
func (r *GormAssignmentRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*models.Assignment, error) {
	var asg models.Assignment
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&asg, id).Error; err != nil {
		return nil, err
	}
	return &asg, nil
}

// End moves an active assignment to a terminal status
func (r *GormAssignmentRepository) End(ctx context.Context, id uint64, status models.AssignmentStatus, reason string, at time.Time) (bool, error) {
	return conditionalUpdate(
		r.db.WithContext(ctx).Model(&models.Assignment{}).
			Where("id = ? AND status = ?", id, models.AssignmentStatusActive),
		map[string]interface{}{
			"status":     status,
			"end_reason": reason,
			"ended_at":   at,
		},
	)
}

// AddHoursCompleted atomically increases hours_completed
func (r *GormAssignmentRepository) AddHoursCompleted(ctx context.Context, id uint64, hours decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ?", id).
		Update("hours_completed", gorm.Expr("hours_completed + ?", hours))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SubtractHoursCompleted atomically decreases hours_completed unless it would go negative
func (r *GormAssignmentRepository) SubtractHoursCompleted(ctx context.Context, id uint64, hours decimal.Decimal) (bool, error) {
	return conditionalUpdate(
		r.db.WithContext(ctx).Model(&models.Assignment{}).
			Where("id = ? AND hours_completed >= ?", id, hours),
		map[string]interface{}{"hours_completed": gorm.Expr("hours_completed - ?", hours)},
	)
}

// ResetHoursCompleted sets hours_completed to zero
func (r *GormAssignmentRepository) ResetHoursCompleted(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ?", id).
		Update("hours_completed", decimal.Zero).Error
}

// CountByOpportunity counts assignments of an opportunity in the given status
func (r *GormAssignmentRepository) CountByOpportunity(ctx context.Context, opportunityID uint64, status models.AssignmentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("opportunity_id = ? AND status = ?", opportunityID, status).
		Count(&count).Error
	return count, err
}

// List retrieves assignments with filtering and pagination
func (r *GormAssignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{})

	if filter.OpportunityID != nil {
		query = query.Where("opportunity_id = ?", *filter.OpportunityID)
	}
	if filter.VolunteerID != nil {
		query = query.Where("volunteer_id = ?", *filter.VolunteerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("start_date ASC").Order("id ASC")

	var assignments []models.Assignment
	if err := listQuery.Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}
