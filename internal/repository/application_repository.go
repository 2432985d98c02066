package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// GormApplicationRepository is a GORM implementation of ApplicationRepository
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// Create creates a new application
func (r *GormApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.Status == models.ApplicationStatusPending {
		key := models.PendingApplicationKey(app.ApplicantID, app.OpportunityID)
		app.PendingKey = &key
	}
	return r.db.WithContext(ctx).Create(app).Error
}

// FindByID finds an application by ID
func (r *GormApplicationRepository) FindByID(ctx context.Context, id uint64) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByIDForUpdate finds an application by ID and locks the row
func (r *GormApplicationRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).Clauses(forUpdate).First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// HasPending reports whether a pending application exists for the pair
func (r *GormApplicationRepository) HasPending(ctx context.Context, applicantID, opportunityID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Where("applicant_id = ? AND opportunity_id = ? AND status = ?",
			applicantID, opportunityID, models.ApplicationStatusPending).
		Count(&count).Error
	return count > 0, err
}

// Resolve moves a pending application to a final status
func (r *GormApplicationRepository) Resolve(ctx context.Context, id uint64, change ApplicationResolution) (bool, error) {
	return conditionalUpdate(
		r.db.WithContext(ctx).Model(&models.Application{}).
			Where("id = ? AND status = ?", id, models.ApplicationStatusPending),
		map[string]interface{}{
			"status":         change.Status,
			"pending_key":    nil,
			"reviewer_id":    change.ReviewerID,
			"reviewed_at":    change.ReviewedAt,
			"reviewer_notes": change.ReviewerNotes,
		},
	)
}

// MarkReviewStarted records the reviewer on a pending application
func (r *GormApplicationRepository) MarkReviewStarted(ctx context.Context, id, reviewerID uint64, at time.Time) (bool, error) {
	return conditionalUpdate(
		r.db.WithContext(ctx).Model(&models.Application{}).
			Where("id = ? AND status = ?", id, models.ApplicationStatusPending),
		map[string]interface{}{
			"reviewer_id":       reviewerID,
			"review_started_at": at,
		},
	)
}

// List retrieves applications with filtering and pagination
func (r *GormApplicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Application{})

	if filter.OpportunityID != nil {
		query = query.Where("opportunity_id = ?", *filter.OpportunityID)
	}
	if filter.ApplicantID != nil {
		query = query.Where("applicant_id = ?", *filter.ApplicantID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(paginate(filter.Page, filter.PageSize)).Order("submitted_at ASC").Order("id ASC")

	var applications []models.Application
	if err := listQuery.Find(&applications).Error; err != nil {
		return nil, 0, err
	}

	return applications, total, nil
}
