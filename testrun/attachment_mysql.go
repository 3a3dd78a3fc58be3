package testrun

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseline/caseline/logger"
)

// MySQLAttachmentStore implements the AttachmentStore interface using GORM and MySQL.
type MySQLAttachmentStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLAttachmentStore creates a new MySQL-backed attachment store.
func NewMySQLAttachmentStore(db *gorm.DB, log logger.Logger) *MySQLAttachmentStore {
	return &MySQLAttachmentStore{
		db:     db,
		logger: log,
	}
}

// Create records a new attachment against an execution.
func (s *MySQLAttachmentStore) Create(ctx context.Context, attachment *ExecutionAttachment) error {
	if err := attachment.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exec TestExecution
		if err := tx.Where("id = ?", attachment.ExecutionID).First(&exec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExecutionNotFound
			}
			return err
		}
		return tx.Create(attachment).Error
	})

	if err != nil {
		if errors.Is(err, ErrExecutionNotFound) {
			return err
		}
		s.logger.Error(ctx, "failed to create attachment", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": attachment.ExecutionID.String(),
			"file_name":    attachment.FileName,
		})
		return err
	}

	s.logger.Info(ctx, "attachment created", map[string]interface{}{
		"attachment_id": attachment.ID.String(),
		"execution_id":  attachment.ExecutionID.String(),
		"file_name":     attachment.FileName,
	})

	return nil
}

// GetByID retrieves an attachment by its ID.
func (s *MySQLAttachmentStore) GetByID(ctx context.Context, id uuid.UUID) (*ExecutionAttachment, error) {
	var attachment ExecutionAttachment
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&attachment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		s.logger.Error(ctx, "failed to get attachment by ID", map[string]interface{}{
			"error":         err.Error(),
			"attachment_id": id.String(),
		})
		return nil, err
	}

	return &attachment, nil
}

// ListByExecution retrieves all attachments for a specific execution.
func (s *MySQLAttachmentStore) ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*ExecutionAttachment, error) {
	var attachments []*ExecutionAttachment
	err := s.db.WithContext(ctx).
		Where("execution_id = ?", executionID).
		Order("uploaded_at ASC").
		Find(&attachments).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list attachments by execution", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": executionID.String(),
		})
		return nil, err
	}

	return attachments, nil
}

// Delete deletes an attachment by ID.
func (s *MySQLAttachmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&ExecutionAttachment{})

	if result.Error != nil {
		s.logger.Error(ctx, "failed to delete attachment", map[string]interface{}{
			"error":         result.Error.Error(),
			"attachment_id": id.String(),
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrAttachmentNotFound
	}

	s.logger.Info(ctx, "attachment deleted", map[string]interface{}{
		"attachment_id": id.String(),
	})

	return nil
}
