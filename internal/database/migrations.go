package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// Composite indexes backing the lifecycle queries. Single column indexes are
// declared on the models.
var indexes = []index{
	{"opportunities", "idx_opportunities_org_status", "organization_id, status"},
	{"applications", "idx_applications_opportunity_status", "opportunity_id, status"},
	{"applications", "idx_applications_applicant_status", "applicant_id, status"},
	{"assignments", "idx_assignments_opportunity_status", "opportunity_id, status"},
	{"time_logs", "idx_time_logs_assignment_approved", "assignment_id, supervisor_approved"},
	{"outbox_events", "idx_outbox_events_unpublished", "published_at, id"},
}

// AddIndexes adds the composite indexes that are missing.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()

	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index",
			zap.String("index", idx.name),
			zap.String("table", idx.table),
			zap.String("columns", idx.columns),
		)
	}

	return nil
}
