package testrun

import (
	"context"

	"github.com/google/uuid"
)

// ExecutionStore defines the interface for test execution operations.
//
// Executions are created by Store.CreateRun and Store.CloneRun only;
// there is no standalone create, and nothing deletes them.
type ExecutionStore interface {
	// GetByID retrieves a test execution by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*TestExecution, error)

	// ListByRun retrieves a run's executions in plan order.
	ListByRun(ctx context.Context, runID uuid.UUID) ([]*TestExecution, error)

	// ListByCase retrieves every execution of a case across all runs and
	// versions, oldest first.
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*TestExecution, error)

	// SetStatus records a result on behalf of an actor. Any status may
	// follow any other; the token must match the execution's current one
	// or ErrStaleExecution is returned. The status write, its ledger
	// entry and any run auto-finish commit atomically.
	SetStatus(ctx context.Context, id uuid.UUID, status ExecutionStatus, actorID uuid.UUID, comment string, token uint) (*TestExecution, error)

	// AppendNote adds commentary without changing status. The token
	// advances, so concurrent editors still detect the write.
	AppendNote(ctx context.Context, id, actorID uuid.UUID, note string) (*TestExecution, error)

	// Assign sets or clears the execution's assignee.
	Assign(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID) (*TestExecution, error)
}
