package environment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseline/caseline/logger"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed environment store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new environment in the database.
func (s *MySQLStore) Create(ctx context.Context, env *Environment) error {
	if err := env.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(env).Error; err != nil {
		s.logger.Error(ctx, "failed to create environment", map[string]interface{}{
			"error": err.Error(),
			"name":  env.Name,
		})
		return err
	}

	s.logger.Info(ctx, "environment created", map[string]interface{}{
		"environment_id": env.ID.String(),
		"name":           env.Name,
	})

	return nil
}

// GetByID retrieves an active environment by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*Environment, error) {
	var env Environment
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&env).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnvironmentNotFound
		}
		s.logger.Error(ctx, "failed to get environment by ID", map[string]interface{}{
			"error":          err.Error(),
			"environment_id": id.String(),
		})
		return nil, err
	}

	return &env, nil
}

// Update updates an environment with the given setters.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	env, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(env); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Save(env).Error; err != nil {
		s.logger.Error(ctx, "failed to update environment", map[string]interface{}{
			"error":          err.Error(),
			"environment_id": id.String(),
		})
		return err
	}

	s.logger.Info(ctx, "environment updated", map[string]interface{}{
		"environment_id": id.String(),
	})

	return nil
}

// Delete soft deletes an environment by setting is_active to false.
func (s *MySQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Model(&Environment{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)

	if result.Error != nil {
		s.logger.Error(ctx, "failed to delete environment", map[string]interface{}{
			"error":          result.Error.Error(),
			"environment_id": id.String(),
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrEnvironmentNotFound
	}

	s.logger.Info(ctx, "environment deleted", map[string]interface{}{
		"environment_id": id.String(),
	})

	return nil
}

// List retrieves a paginated list of active environments.
func (s *MySQLStore) List(ctx context.Context, limit, offset int) ([]*Environment, error) {
	var envs []*Environment
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&envs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list environments", map[string]interface{}{
			"error":  err.Error(),
			"limit":  limit,
			"offset": offset,
		})
		return nil, err
	}

	return envs, nil
}
