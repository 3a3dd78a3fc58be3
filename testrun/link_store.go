package testrun

import (
	"context"

	"github.com/google/uuid"
)

// LinkStore manages external references on test executions.
type LinkStore interface {
	// AddLink attaches a named URL to an execution. Adding the same
	// name and url pair twice returns the existing link rather than a
	// duplicate row.
	AddLink(ctx context.Context, executionID uuid.UUID, name, url string, createdBy uuid.UUID) (*ExecutionLink, error)
	ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*ExecutionLink, error)
	Remove(ctx context.Context, id uuid.UUID) error
}
