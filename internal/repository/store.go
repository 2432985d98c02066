package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/database"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/utils"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// GormStore is a GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewStore creates a new Store
func NewStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

func (s *GormStore) Opportunities() OpportunityRepository {
	return &GormOpportunityRepository{db: s.db}
}

func (s *GormStore) Applications() ApplicationRepository {
	return &GormApplicationRepository{db: s.db}
}

func (s *GormStore) Assignments() AssignmentRepository {
	return &GormAssignmentRepository{db: s.db}
}

func (s *GormStore) TimeLogs() TimeLogRepository {
	return &GormTimeLogRepository{db: s.db}
}

func (s *GormStore) Outbox() OutboxRepository {
	return &GormOutboxRepository{db: s.db}
}

func (s *GormStore) Members() MemberRepository {
	return &GormMemberRepository{db: s.db}
}

// Transaction runs fn against a Store bound to a new transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// conditionalUpdate runs an UPDATE and reports whether any row matched
func conditionalUpdate(query *gorm.DB, fields map[string]interface{}) (bool, error) {
	result := query.Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// paginate limits a list query to one page; a zero page or size lists everything
func paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return database.Paginate(utils.NewPaginationParams(page, pageSize))
}
