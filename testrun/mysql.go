package testrun

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/caseline/caseline/environment"
	"github.com/caseline/caseline/events"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
	"github.com/caseline/caseline/testplan"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db        *gorm.DB
	logger    logger.Logger
	publisher events.Publisher
}

// NewMySQLStore creates a new MySQL-backed test run store.
func NewMySQLStore(db *gorm.DB, log logger.Logger, publisher events.Publisher) *MySQLStore {
	return &MySQLStore{
		db:        db,
		logger:    log,
		publisher: publisher,
	}
}

// CreateRun creates a run and its executions in one transaction.
func (s *MySQLStore) CreateRun(ctx context.Context, params NewRun) (*TestRun, error) {
	caseIDs := dedupeIDs(params.CaseIDs)
	if len(caseIDs) == 0 {
		return nil, ErrEmptySelection
	}

	run := &TestRun{
		PlanID:        params.PlanID,
		EnvironmentID: params.EnvironmentID,
		Build:         params.Build,
		Summary:       params.Summary,
		ManagerID:     params.ManagerID,
		Status:        RunStatusOpen,
	}
	if err := run.Validate(); err != nil {
		return nil, err
	}

	var created int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan testplan.TestPlan
		err := tx.WithContext(ctx).
			Where("id = ? AND is_active = ?", params.PlanID, true).
			First(&plan).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return testplan.ErrPlanNotFound
			}
			return err
		}

		if params.EnvironmentID != nil {
			var env environment.Environment
			err := tx.WithContext(ctx).
				Where("id = ? AND is_active = ?", *params.EnvironmentID, true).
				First(&env).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return environment.ErrEnvironmentNotFound
				}
				return err
			}
		}

		var memberships []*testplan.PlanCase
		err = tx.WithContext(ctx).
			Where("plan_id = ?", params.PlanID).
			Find(&memberships).Error
		if err != nil {
			return err
		}
		sortKeys := make(map[uuid.UUID]int, len(memberships))
		for _, m := range memberships {
			sortKeys[m.CaseID] = m.SortKey
		}

		for _, caseID := range caseIDs {
			if _, ok := sortKeys[caseID]; !ok {
				return testplan.ErrCaseNotInPlan
			}
		}

		// Executions follow the plan's order regardless of selection order.
		sort.SliceStable(caseIDs, func(i, j int) bool {
			return sortKeys[caseIDs[i]] < sortKeys[caseIDs[j]]
		})

		if err := tx.WithContext(ctx).Create(run).Error; err != nil {
			return fmt.Errorf("failed to create test run: %w", err)
		}

		for _, caseID := range caseIDs {
			// Lock the case row so a concurrent revision cannot rewrite
			// the version this execution pins.
			var tc testcase.TestCase
			err := tx.WithContext(ctx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", caseID).
				First(&tc).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return testcase.ErrCaseNotFound
				}
				return err
			}
			if tc.Status == testcase.CaseStatusDisabled {
				return ErrCaseDisabled
			}

			exec := &TestExecution{
				RunID:       run.ID,
				CaseID:      tc.ID,
				CaseVersion: tc.Version,
				SortKey:     sortKeys[caseID],
				Status:      ExecutionStatusIdle,
				AssigneeID:  params.AssigneeID,
				Token:       1,
			}
			if err := tx.WithContext(ctx).Create(exec).Error; err != nil {
				return fmt.Errorf("failed to create test execution: %w", err)
			}

			if err := tx.WithContext(ctx).Create(creationRecord(exec, params.ManagerID)).Error; err != nil {
				return fmt.Errorf("failed to append transition record: %w", err)
			}
		}

		created = len(caseIDs)
		return nil
	})

	if err != nil {
		s.logger.Error(ctx, "failed to create test run", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": params.PlanID.String(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "test run created", map[string]interface{}{
		"test_run_id":  run.ID.String(),
		"test_plan_id": run.PlanID.String(),
		"executions":   created,
	})

	s.publisher.Publish(ctx, events.RunCreated{
		RunID:      run.ID,
		PlanID:     run.PlanID,
		Executions: created,
		OccurredAt: time.Now(),
	})

	return run, nil
}

// CloneRun creates a new open run repeating another run's executions with
// the same case version pins.
func (s *MySQLStore) CloneRun(ctx context.Context, runID, managerID uuid.UUID) (*TestRun, error) {
	if managerID == uuid.Nil {
		return nil, ErrInvalidManager
	}

	var clone *TestRun
	var created int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := s.getByIDWithTx(ctx, tx, runID)
		if err != nil {
			return err
		}

		var sourceExecs []*TestExecution
		err = tx.WithContext(ctx).
			Where("run_id = ?", runID).
			Order("sort_key ASC, created_at ASC").
			Find(&sourceExecs).Error
		if err != nil {
			return err
		}

		clone = &TestRun{
			PlanID:        source.PlanID,
			EnvironmentID: source.EnvironmentID,
			Build:         source.Build,
			Summary:       source.Summary,
			ManagerID:     managerID,
			Status:        RunStatusOpen,
		}
		if err := tx.WithContext(ctx).Create(clone).Error; err != nil {
			return fmt.Errorf("failed to create test run clone: %w", err)
		}

		for _, src := range sourceExecs {
			exec := &TestExecution{
				RunID:       clone.ID,
				CaseID:      src.CaseID,
				CaseVersion: src.CaseVersion,
				SortKey:     src.SortKey,
				Status:      ExecutionStatusIdle,
				AssigneeID:  src.AssigneeID,
				Token:       1,
			}
			if err := tx.WithContext(ctx).Create(exec).Error; err != nil {
				return fmt.Errorf("failed to create test execution: %w", err)
			}

			if err := tx.WithContext(ctx).Create(creationRecord(exec, managerID)).Error; err != nil {
				return fmt.Errorf("failed to append transition record: %w", err)
			}
		}

		created = len(sourceExecs)
		return nil
	})

	if err != nil {
		s.logger.Error(ctx, "failed to clone test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": runID.String(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "test run cloned", map[string]interface{}{
		"test_run_id": runID.String(),
		"clone_id":    clone.ID.String(),
		"executions":  created,
	})

	s.publisher.Publish(ctx, events.RunCreated{
		RunID:      clone.ID,
		PlanID:     clone.PlanID,
		Executions: created,
		OccurredAt: time.Now(),
	})

	return clone, nil
}

// GetByID retrieves a test run by its ID.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*TestRun, error) {
	var run TestRun
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error(ctx, "failed to get test run by ID", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id.String(),
		})
		return nil, err
	}

	return &run, nil
}

// Update updates a test run's metadata with the given setters. A
// repointed environment must exist and be active, same as at creation.
func (s *MySQLStore) Update(ctx context.Context, id uuid.UUID, setters ...UpdateSetter) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run, err := s.getByIDWithTx(ctx, tx, id)
		if err != nil {
			return err
		}

		before := run.EnvironmentID
		for _, setter := range setters {
			if err := setter(run); err != nil {
				return err
			}
		}

		if run.EnvironmentID != nil && (before == nil || *before != *run.EnvironmentID) {
			var env environment.Environment
			err := tx.WithContext(ctx).
				Where("id = ? AND is_active = ?", *run.EnvironmentID, true).
				First(&env).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return environment.ErrEnvironmentNotFound
				}
				return err
			}
		}

		if err := tx.WithContext(ctx).Save(run).Error; err != nil {
			return fmt.Errorf("failed to save test run: %w", err)
		}
		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrRunNotFound) && !errors.Is(err, environment.ErrEnvironmentNotFound) {
			s.logger.Error(ctx, "failed to update test run", map[string]interface{}{
				"error":       err.Error(),
				"test_run_id": id.String(),
			})
		}
		return err
	}

	s.logger.Info(ctx, "test run updated", map[string]interface{}{
		"test_run_id": id.String(),
	})

	return nil
}

// ListByPlan retrieves a paginated list of runs for a plan.
func (s *MySQLStore) ListByPlan(ctx context.Context, planID uuid.UUID, limit, offset int) ([]*TestRun, error) {
	var runs []*TestRun
	err := s.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list test runs by plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
			"limit":        limit,
			"offset":       offset,
		})
		return nil, err
	}

	return runs, nil
}

// CountByPlan returns the total count of runs for a plan.
func (s *MySQLStore) CountByPlan(ctx context.Context, planID uuid.UUID) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&TestRun{}).
		Where("plan_id = ?", planID).
		Count(&count).Error

	if err != nil {
		s.logger.Error(ctx, "failed to count test runs by plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		return 0, err
	}

	return int(count), nil
}

// Finish closes an open run.
func (s *MySQLStore) Finish(ctx context.Context, id, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return ErrInvalidActor
	}

	var run *TestRun

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		run, err = s.getByIDWithTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if run.IsFinished() {
			return ErrRunFinished
		}

		now := time.Now()
		run.Status = RunStatusFinished
		run.FinishedAt = &now
		if err := tx.WithContext(ctx).Save(run).Error; err != nil {
			return fmt.Errorf("failed to finish test run: %w", err)
		}

		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrRunFinished) && !errors.Is(err, ErrRunNotFound) {
			s.logger.Error(ctx, "failed to finish test run", map[string]interface{}{
				"error":       err.Error(),
				"test_run_id": id.String(),
			})
		}
		return err
	}

	s.logger.Info(ctx, "test run finished", map[string]interface{}{
		"test_run_id": id.String(),
		"actor_id":    actorID.String(),
	})

	s.publisher.Publish(ctx, events.RunFinished{
		RunID:      run.ID,
		PlanID:     run.PlanID,
		OccurredAt: time.Now(),
	})

	return nil
}

// Reopen reverses Finish.
func (s *MySQLStore) Reopen(ctx context.Context, id, actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return ErrInvalidActor
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run, err := s.getByIDWithTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !run.IsFinished() {
			return ErrRunOpen
		}

		run.Status = RunStatusOpen
		run.FinishedAt = nil
		if err := tx.WithContext(ctx).Save(run).Error; err != nil {
			return fmt.Errorf("failed to reopen test run: %w", err)
		}

		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrRunOpen) && !errors.Is(err, ErrRunNotFound) {
			s.logger.Error(ctx, "failed to reopen test run", map[string]interface{}{
				"error":       err.Error(),
				"test_run_id": id.String(),
			})
		}
		return err
	}

	s.logger.Info(ctx, "test run reopened", map[string]interface{}{
		"test_run_id": id.String(),
		"actor_id":    actorID.String(),
	})

	return nil
}

// getByIDWithTx is a helper to get a test run within a transaction.
func (s *MySQLStore) getByIDWithTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*TestRun, error) {
	var run TestRun
	err := tx.WithContext(ctx).
		Where("id = ?", id).
		First(&run).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	return &run, nil
}

// dedupeIDs removes duplicate ids preserving first-seen order.
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
