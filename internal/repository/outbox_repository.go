package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// GormOutboxRepository is a GORM implementation of OutboxRepository
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new OutboxRepository
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &GormOutboxRepository{db: db}
}

// Add stores an event
func (r *GormOutboxRepository) Add(ctx context.Context, event *models.OutboxEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FetchUnpublished locks and returns the oldest unpublished events that are
// still under the attempt limit. SKIP LOCKED lets several relays share the table.
func (r *GormOutboxRepository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL").
		Where("attempts < ?", maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// MarkPublished stamps events as delivered
func (r *GormOutboxRepository) MarkPublished(ctx context.Context, ids []uint64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id IN ?", ids).
		Update("published_at", at).Error
}

// MarkFailed records a failed delivery attempt
func (r *GormOutboxRepository) MarkFailed(ctx context.Context, id uint64, reason string) error {
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}
