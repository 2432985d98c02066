package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// GormTimeLogRepository is a GORM implementation of TimeLogRepository
type GormTimeLogRepository struct {
	db *gorm.DB
}

// NewTimeLogRepository creates a new TimeLogRepository
func NewTimeLogRepository(db *gorm.DB) TimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

// Create creates a new time log
func (r *GormTimeLogRepository) Create(ctx context.Context, log *models.TimeLog) error {
	if log.Version == 0 {
		log.Version = 1
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByID finds a time log by ID
func (r *GormTimeLogRepository) FindByID(ctx context.Context, id uint64) (*models.TimeLog, error) {
	var log models.TimeLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// FindByIDForUpdate finds a time log by ID and locks the row
func (r *GormTimeLogRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*models.TimeLog, error) {
	var log models.TimeLog
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// UpdateVersioned applies fields if the stored version matches
func (r *GormTimeLogRepository) UpdateVersioned(ctx context.Context, id uint64, version int, fields map[string]interface{}) (bool, error) {
	update := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		update[k] = v
	}
	update["version"] = gorm.Expr("version + 1")

	return conditionalUpdate(
		r.db.WithContext(ctx).Model(&models.TimeLog{}).
			Where("id = ? AND version = ?", id, version),
		update,
	)
}

// Delete soft deletes a time log
func (r *GormTimeLogRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.TimeLog{}, id).Error
}

// CountPendingByOpportunity counts undecided time logs under an opportunity
func (r *GormTimeLogRepository) CountPendingByOpportunity(ctx context.Context, opportunityID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TimeLog{}).
		Joins("JOIN assignments ON assignments.id = time_logs.assignment_id").
		Where("assignments.opportunity_id = ? AND assignments.deleted_at IS NULL", opportunityID).
		Where("time_logs.supervisor_approved = ? AND time_logs.rejected_at IS NULL", false).
		Count(&count).Error
	return count, err
}

// SumApprovedHours sums the hours of approved time logs of an assignment
func (r *GormTimeLogRepository) SumApprovedHours(ctx context.Context, assignmentID uint64) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.TimeLog{}).
		Select("SUM(hours)").
		Where("assignment_id = ? AND supervisor_approved = ?", assignmentID, true).
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// ListByAssignment retrieves the time logs of an assignment
func (r *GormTimeLogRepository) ListByAssignment(ctx context.Context, assignmentID uint64, page, pageSize int) ([]models.TimeLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TimeLog{}).Where("assignment_id = ?", assignmentID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(paginate(page, pageSize)).Order("date DESC").Order("id DESC")

	var logs []models.TimeLog
	if err := listQuery.Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
