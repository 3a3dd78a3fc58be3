package testrun

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseline/caseline/logger"
)

// MySQLLinkStore implements the LinkStore interface using GORM and MySQL.
type MySQLLinkStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLLinkStore creates a new MySQL-backed link store.
func NewMySQLLinkStore(db *gorm.DB, log logger.Logger) *MySQLLinkStore {
	return &MySQLLinkStore{
		db:     db,
		logger: log,
	}
}

// AddLink attaches a named URL to an execution. Re-adding an identical
// name and url pair returns the existing link.
func (s *MySQLLinkStore) AddLink(ctx context.Context, executionID uuid.UUID, name, url string, createdBy uuid.UUID) (*ExecutionLink, error) {
	link := ExecutionLink{
		ExecutionID: executionID,
		Name:        name,
		URL:         url,
		CreatedBy:   createdBy,
	}
	if err := link.Validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exec TestExecution
		if err := tx.Where("id = ?", executionID).First(&exec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExecutionNotFound
			}
			return err
		}

		var existing ExecutionLink
		err := tx.Where("execution_id = ? AND name = ? AND url = ?", executionID, name, url).
			First(&existing).Error
		if err == nil {
			link = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&link).Error
	})

	if err != nil {
		if errors.Is(err, ErrExecutionNotFound) {
			return nil, err
		}
		s.logger.Error(ctx, "failed to add execution link", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": executionID.String(),
			"name":         name,
		})
		return nil, err
	}

	return &link, nil
}

// ListByExecution retrieves an execution's links, oldest first.
func (s *MySQLLinkStore) ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*ExecutionLink, error) {
	var links []*ExecutionLink
	err := s.db.WithContext(ctx).
		Where("execution_id = ?", executionID).
		Order("created_at ASC").
		Find(&links).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list execution links", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": executionID.String(),
		})
		return nil, err
	}

	return links, nil
}

// Remove deletes a link by ID.
func (s *MySQLLinkStore) Remove(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&ExecutionLink{})

	if result.Error != nil {
		s.logger.Error(ctx, "failed to remove execution link", map[string]interface{}{
			"error":   result.Error.Error(),
			"link_id": id.String(),
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}

	return nil
}
