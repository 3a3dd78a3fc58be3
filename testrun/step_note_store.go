package testrun

import (
	"context"

	"github.com/google/uuid"
)

// StepNoteStore defines the interface for step note persistence operations.
type StepNoteStore interface {
	// Upsert creates or updates a step note for a given (execution_id,
	// step_index). The index must address a step of the case version the
	// execution pins.
	Upsert(ctx context.Context, note *StepNote) error

	// ListByExecution retrieves all step notes for a specific execution,
	// ordered by step_index.
	ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*StepNote, error)

	// GetByExecutionAndStep retrieves the note for one execution step.
	GetByExecutionAndStep(ctx context.Context, executionID uuid.UUID, stepIndex int) (*StepNote, error)
}
