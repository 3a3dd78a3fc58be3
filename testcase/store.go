package testcase

import (
	"context"

	"github.com/google/uuid"
)

// UpdateSetter is a function that modifies a test case during a revision.
type UpdateSetter func(*TestCase) error

// Store defines the interface for test case storage operations.
type Store interface {
	// Create stores a new test case at version 1 together with its first
	// snapshot.
	Create(ctx context.Context, testCase *TestCase) error

	// GetByID retrieves the current content of a test case.
	GetByID(ctx context.Context, id uuid.UUID) (*TestCase, error)

	// GetVersion retrieves one immutable snapshot of a test case.
	GetVersion(ctx context.Context, caseID uuid.UUID, version uint) (*CaseVersion, error)

	// ListVersions retrieves all snapshots of a test case, oldest first.
	ListVersions(ctx context.Context, caseID uuid.UUID) ([]*CaseVersion, error)

	// List retrieves a paginated list of test cases, newest first.
	List(ctx context.Context, limit, offset int) ([]*TestCase, error)

	// Count returns the total number of test cases.
	Count(ctx context.Context) (int, error)

	// Revise applies content setters on behalf of an actor. A case no
	// execution has ever pinned is rewritten in place; otherwise the
	// revision becomes the next version and prior snapshots stay intact.
	Revise(ctx context.Context, id, actorID uuid.UUID, setters ...UpdateSetter) (*TestCase, error)

	// SetStatus enables or disables a case without touching its content
	// or version.
	SetStatus(ctx context.Context, id uuid.UUID, status CaseStatus) error
}
