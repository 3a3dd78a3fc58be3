package environment

import (
	"context"

	"github.com/google/uuid"
)

// UpdateSetter is a function that updates an environment field.
type UpdateSetter func(*Environment) error

// Store defines the interface for environment persistence operations.
type Store interface {
	// Create creates a new environment in the store.
	Create(ctx context.Context, env *Environment) error

	// GetByID retrieves an active environment by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Environment, error)

	// Update updates an environment with the given setters.
	Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error

	// Delete soft deletes an environment by setting is_active to false.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves a paginated list of active environments.
	List(ctx context.Context, limit, offset int) ([]*Environment, error)
}
