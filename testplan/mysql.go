package testplan

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewMySQLStore creates a new MySQL-backed test plan store.
func NewMySQLStore(db *gorm.DB, log logger.Logger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
	}
}

// Create creates a new test plan in the database.
func (s *MySQLStore) Create(ctx context.Context, plan *TestPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		s.logger.Error(ctx, "failed to create test plan", map[string]interface{}{
			"error":   err.Error(),
			"name":    plan.Name,
			"product": plan.Product,
		})
		return err
	}

	s.logger.Info(ctx, "test plan created", map[string]interface{}{
		"test_plan_id": plan.ID.String(),
		"name":         plan.Name,
		"product":      plan.Product,
	})

	return nil
}

// GetByID retrieves an active test plan by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*TestPlan, error) {
	var plan TestPlan
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		s.logger.Error(ctx, "failed to get test plan by ID", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": id.String(),
		})
		return nil, err
	}

	return &plan, nil
}

// Update updates a test plan with the given setters.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	plan, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, setter := range setters {
		if err := setter(plan); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Save(plan).Error; err != nil {
		s.logger.Error(ctx, "failed to update test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": id.String(),
		})
		return err
	}

	s.logger.Info(ctx, "test plan updated", map[string]interface{}{
		"test_plan_id": id.String(),
	})

	return nil
}

// Delete soft deletes a test plan by setting is_active to false.
func (s *MySQLStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Model(&TestPlan{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)

	if result.Error != nil {
		s.logger.Error(ctx, "failed to delete test plan", map[string]interface{}{
			"error":        result.Error.Error(),
			"test_plan_id": id.String(),
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}

	s.logger.Info(ctx, "test plan deleted", map[string]interface{}{
		"test_plan_id": id.String(),
	})

	return nil
}

// ListByProduct retrieves a paginated list of active plans for a product.
func (s *MySQLStore) ListByProduct(ctx context.Context, product string, limit, offset int) ([]*TestPlan, error) {
	var plans []*TestPlan
	err := s.db.WithContext(ctx).
		Where("product = ? AND is_active = ?", product, true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&plans).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list test plans by product", map[string]interface{}{
			"error":   err.Error(),
			"product": product,
			"limit":   limit,
			"offset":  offset,
		})
		return nil, err
	}

	return plans, nil
}

// CountByProduct returns the total count of active plans for a product.
func (s *MySQLStore) CountByProduct(ctx context.Context, product string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&TestPlan{}).
		Where("product = ? AND is_active = ?", product, true).
		Count(&count).Error

	if err != nil {
		s.logger.Error(ctx, "failed to count test plans by product", map[string]interface{}{
			"error":   err.Error(),
			"product": product,
		})
		return 0, err
	}

	return int(count), nil
}

// ListChildren retrieves the active plans cloned from the given plan.
func (s *MySQLStore) ListChildren(ctx context.Context, planID uuid.UUID) ([]*TestPlan, error) {
	var children []*TestPlan
	err := s.db.WithContext(ctx).
		Where("parent_id = ? AND is_active = ?", planID, true).
		Order("created_at ASC").
		Find(&children).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list child plans", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		return nil, err
	}

	return children, nil
}

// AddCase includes a case in the plan.
func (s *MySQLStore) AddCase(ctx context.Context, planID, caseID, actorID uuid.UUID, sortKey int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.planExistsWithTx(ctx, tx, planID); err != nil {
			return err
		}

		var tc testcase.TestCase
		if err := tx.WithContext(ctx).Where("id = ?", caseID).First(&tc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return testcase.ErrCaseNotFound
			}
			return err
		}

		var existing int64
		err := tx.WithContext(ctx).
			Model(&PlanCase{}).
			Where("plan_id = ? AND case_id = ?", planID, caseID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateCase
		}

		if sortKey <= 0 {
			var maxKey int
			err := tx.WithContext(ctx).
				Model(&PlanCase{}).
				Where("plan_id = ?", planID).
				Select("COALESCE(MAX(sort_key), 0)").
				Scan(&maxKey).Error
			if err != nil {
				return fmt.Errorf("failed to get max sort key: %w", err)
			}
			sortKey = maxKey + 10
		}

		membership := &PlanCase{
			PlanID:  planID,
			CaseID:  caseID,
			SortKey: sortKey,
			AddedBy: actorID,
		}
		if err := tx.WithContext(ctx).Create(membership).Error; err != nil {
			return fmt.Errorf("failed to add case to plan: %w", err)
		}

		return nil
	})

	if err != nil {
		s.logger.Error(ctx, "failed to add case to test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
			"test_case_id": caseID.String(),
		})
		return err
	}

	s.logger.Info(ctx, "case added to test plan", map[string]interface{}{
		"test_plan_id": planID.String(),
		"test_case_id": caseID.String(),
	})

	return nil
}

// RemoveCase drops a case from the plan. The case itself is untouched and
// existing runs keep their executions.
func (s *MySQLStore) RemoveCase(ctx context.Context, planID, caseID uuid.UUID) error {
	if _, err := s.GetByID(ctx, planID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("plan_id = ? AND case_id = ?", planID, caseID).
		Delete(&PlanCase{})

	if result.Error != nil {
		s.logger.Error(ctx, "failed to remove case from test plan", map[string]interface{}{
			"error":        result.Error.Error(),
			"test_plan_id": planID.String(),
			"test_case_id": caseID.String(),
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrCaseNotInPlan
	}

	s.logger.Info(ctx, "case removed from test plan", map[string]interface{}{
		"test_plan_id": planID.String(),
		"test_case_id": caseID.String(),
	})

	return nil
}

// ListCases retrieves the plan's memberships in plan order.
func (s *MySQLStore) ListCases(ctx context.Context, planID uuid.UUID) ([]*PlanCase, error) {
	if _, err := s.GetByID(ctx, planID); err != nil {
		return nil, err
	}

	var memberships []*PlanCase
	err := s.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("sort_key ASC, created_at ASC").
		Find(&memberships).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list plan cases", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		return nil, err
	}

	return memberships, nil
}

// Clone creates a child plan carrying the same product and memberships.
func (s *MySQLStore) Clone(ctx context.Context, planID uuid.UUID, name string, actorID uuid.UUID) (*TestPlan, error) {
	if name == "" {
		return nil, ErrInvalidPlanName
	}
	if actorID == uuid.Nil {
		return nil, ErrInvalidAuthor
	}

	var clone *TestPlan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source TestPlan
		err := tx.WithContext(ctx).
			Where("id = ? AND is_active = ?", planID, true).
			First(&source).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return err
		}

		clone = &TestPlan{
			Name:           name,
			Product:        source.Product,
			ProductVersion: source.ProductVersion,
			ParentID:       &source.ID,
			AuthorID:       actorID,
			IsActive:       true,
		}
		if err := tx.WithContext(ctx).Create(clone).Error; err != nil {
			return fmt.Errorf("failed to create plan clone: %w", err)
		}

		var memberships []*PlanCase
		err = tx.WithContext(ctx).
			Where("plan_id = ?", planID).
			Order("sort_key ASC").
			Find(&memberships).Error
		if err != nil {
			return err
		}

		for _, m := range memberships {
			copied := &PlanCase{
				PlanID:  clone.ID,
				CaseID:  m.CaseID,
				SortKey: m.SortKey,
				AddedBy: actorID,
			}
			if err := tx.WithContext(ctx).Create(copied).Error; err != nil {
				return fmt.Errorf("failed to copy plan membership: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		s.logger.Error(ctx, "failed to clone test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "test plan cloned", map[string]interface{}{
		"test_plan_id": planID.String(),
		"clone_id":     clone.ID.String(),
	})

	return clone, nil
}

// planExistsWithTx is a helper to check for an active plan within a transaction.
func (s *MySQLStore) planExistsWithTx(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error {
	var plan TestPlan
	err := tx.WithContext(ctx).
		Where("id = ? AND is_active = ?", planID, true).
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	return nil
}
