package testrun

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
)

// MySQLStepNoteStore implements StepNoteStore using GORM and MySQL.
type MySQLStepNoteStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStepNoteStore creates a new MySQL-backed step note store.
func NewMySQLStepNoteStore(db *gorm.DB, log logger.Logger) *MySQLStepNoteStore {
	return &MySQLStepNoteStore{
		db:     db,
		logger: log,
	}
}

// Upsert creates or updates a step note for a given (execution_id, step_index).
// The index is checked against the steps of the case version the execution
// pins, so notes can only land on steps the tester actually saw.
func (s *MySQLStepNoteStore) Upsert(ctx context.Context, note *StepNote) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exec TestExecution
		if err := tx.Where("id = ?", note.ExecutionID).First(&exec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExecutionNotFound
			}
			return err
		}

		var version testcase.CaseVersion
		err := tx.Where("case_id = ? AND version = ?", exec.CaseID, exec.CaseVersion).
			First(&version).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return testcase.ErrVersionNotFound
			}
			return err
		}
		if note.StepIndex < 0 || note.StepIndex >= len(version.Steps) {
			return ErrStepIndexOutOfRange
		}

		var existing StepNote
		err = tx.Where("execution_id = ? AND step_index = ?", note.ExecutionID, note.StepIndex).
			First(&existing).Error
		if err == nil {
			existing.Notes = note.Notes
			existing.NotedBy = note.NotedBy
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*note = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(note).Error
	})

	if err != nil {
		if errors.Is(err, ErrExecutionNotFound) || errors.Is(err, ErrStepIndexOutOfRange) {
			return err
		}
		s.logger.Error(ctx, "failed to upsert step note", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": note.ExecutionID.String(),
			"step_index":   note.StepIndex,
		})
		return err
	}

	return nil
}

// ListByExecution retrieves all step notes for a specific execution, ordered by step_index.
func (s *MySQLStepNoteStore) ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*StepNote, error) {
	var notes []*StepNote
	err := s.db.WithContext(ctx).
		Where("execution_id = ?", executionID).
		Order("step_index ASC").
		Find(&notes).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list step notes by execution", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": executionID.String(),
		})
		return nil, err
	}

	return notes, nil
}

// GetByExecutionAndStep retrieves the note for one execution step.
func (s *MySQLStepNoteStore) GetByExecutionAndStep(ctx context.Context, executionID uuid.UUID, stepIndex int) (*StepNote, error) {
	var note StepNote
	err := s.db.WithContext(ctx).
		Where("execution_id = ? AND step_index = ?", executionID, stepIndex).
		First(&note).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStepNoteNotFound
		}
		s.logger.Error(ctx, "failed to get step note", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": executionID.String(),
			"step_index":   stepIndex,
		})
		return nil, err
	}

	return &note, nil
}
