package testrun

import (
	"context"

	"github.com/google/uuid"
)

// AttachmentStore defines the interface for execution attachment persistence.
type AttachmentStore interface {
	// Create records a new attachment against an execution.
	Create(ctx context.Context, attachment *ExecutionAttachment) error

	// GetByID retrieves an attachment by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*ExecutionAttachment, error)

	// ListByExecution retrieves all attachments for a specific execution.
	ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*ExecutionAttachment, error)

	// Delete deletes an attachment by ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
