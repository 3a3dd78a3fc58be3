package testrun

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseline/caseline/logger"
)

// MySQLHistoryStore implements the HistoryStore interface using GORM and MySQL.
type MySQLHistoryStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLHistoryStore creates a new MySQL-backed history store.
func NewMySQLHistoryStore(db *gorm.DB, log logger.Logger) *MySQLHistoryStore {
	return &MySQLHistoryStore{
		db:     db,
		logger: log,
	}
}

// ListByExecution retrieves an execution's transitions oldest first.
func (s *MySQLHistoryStore) ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*TransitionRecord, error) {
	var exec TestExecution
	err := s.db.WithContext(ctx).
		Where("id = ?", executionID).
		First(&exec).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExecutionNotFound
		}
		s.logger.Error(ctx, "failed to get test execution for history", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": executionID.String(),
		})
		return nil, err
	}

	var records []*TransitionRecord
	err = s.db.WithContext(ctx).
		Where("execution_id = ?", executionID).
		Order("created_at ASC, id ASC").
		Find(&records).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list transitions by execution", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": executionID.String(),
		})
		return nil, err
	}

	return records, nil
}

// ListByCase retrieves transitions across every execution of a case,
// spanning runs and case versions, oldest first.
func (s *MySQLHistoryStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*TransitionRecord, error) {
	var records []*TransitionRecord
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC, id ASC").
		Find(&records).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list transitions by case", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": caseID.String(),
		})
		return nil, err
	}

	return records, nil
}
