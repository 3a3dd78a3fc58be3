package testplan

import (
	"context"

	"github.com/google/uuid"
)

// UpdateSetter is a function that updates a test plan field.
type UpdateSetter func(*TestPlan) error

// Store defines the interface for test plan persistence operations.
type Store interface {
	// Create creates a new test plan in the store.
	Create(ctx context.Context, plan *TestPlan) error

	// GetByID retrieves an active test plan by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*TestPlan, error)

	// Update updates a test plan with the given setters.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// Delete soft deletes a test plan by setting is_active to false. Runs
	// created from the plan keep working.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByProduct retrieves a paginated list of active plans for a product.
	ListByProduct(ctx context.Context, product string, limit, offset int) ([]*TestPlan, error)

	// CountByProduct returns the total count of active plans for a product.
	CountByProduct(ctx context.Context, product string) (int, error)

	// ListChildren retrieves the active plans cloned from the given plan.
	ListChildren(ctx context.Context, planID uuid.UUID) ([]*TestPlan, error)

	// AddCase includes a case in the plan. A non-positive sort key places
	// the case at the end of the plan's order.
	AddCase(ctx context.Context, planID, caseID, actorID uuid.UUID, sortKey int) error

	// RemoveCase drops a case from the plan without touching the case.
	RemoveCase(ctx context.Context, planID, caseID uuid.UUID) error

	// ListCases retrieves the plan's memberships in plan order.
	ListCases(ctx context.Context, planID uuid.UUID) ([]*PlanCase, error)

	// Clone creates a child plan with the same product and memberships.
	Clone(ctx context.Context, planID uuid.UUID, name string, actorID uuid.UUID) (*TestPlan, error)
}
