package testcase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/logger"
)

// MySQLStore implements the Store interface using GORM and MySQL.
type MySQLStore struct {
	db     *gorm.DB
	logger logger.Logger
	authz  authz.Authorizer
}

// NewMySQLStore creates a new MySQL-backed test case store.
func NewMySQLStore(db *gorm.DB, log logger.Logger, authorizer authz.Authorizer) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: log,
		authz:  authorizer,
	}
}

// Create stores a new test case and its version 1 snapshot in one
// transaction.
func (s *MySQLStore) Create(ctx context.Context, testCase *TestCase) error {
	if testCase.Status == "" {
		testCase.Status = CaseStatusActive
	}
	testCase.Version = 1

	if err := testCase.Validate(); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(testCase).Error; err != nil {
			return fmt.Errorf("failed to create test case: %w", err)
		}

		if err := tx.WithContext(ctx).Create(testCase.Snapshot(testCase.AuthorID)).Error; err != nil {
			return fmt.Errorf("failed to create case snapshot: %w", err)
		}

		return nil
	})

	if err != nil {
		s.logger.Error(ctx, "failed to create test case", map[string]interface{}{
			"error":   err.Error(),
			"summary": testCase.Summary,
		})
		return err
	}

	s.logger.Info(ctx, "test case created", map[string]interface{}{
		"test_case_id": testCase.ID.String(),
		"summary":      testCase.Summary,
	})

	return nil
}

// GetByID retrieves the current content of a test case.
func (s *MySQLStore) GetByID(ctx context.Context, id uuid.UUID) (*TestCase, error) {
	var testCase TestCase
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&testCase).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		s.logger.Error(ctx, "failed to get test case by ID", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		return nil, err
	}

	return &testCase, nil
}

// GetVersion retrieves one immutable snapshot of a test case.
func (s *MySQLStore) GetVersion(ctx context.Context, caseID uuid.UUID, version uint) (*CaseVersion, error) {
	var snapshot CaseVersion
	err := s.db.WithContext(ctx).
		Where("case_id = ? AND version = ?", caseID, version).
		First(&snapshot).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVersionNotFound
		}
		s.logger.Error(ctx, "failed to get case version", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": caseID.String(),
			"version":      version,
		})
		return nil, err
	}

	return &snapshot, nil
}

// ListVersions retrieves all snapshots of a test case, oldest first.
func (s *MySQLStore) ListVersions(ctx context.Context, caseID uuid.UUID) ([]*CaseVersion, error) {
	if _, err := s.GetByID(ctx, caseID); err != nil {
		return nil, err
	}

	var versions []*CaseVersion
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("version ASC").
		Find(&versions).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list case versions", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": caseID.String(),
		})
		return nil, err
	}

	return versions, nil
}

// List retrieves a paginated list of test cases, newest first.
func (s *MySQLStore) List(ctx context.Context, limit, offset int) ([]*TestCase, error) {
	var testCases []*TestCase
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&testCases).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list test cases", map[string]interface{}{
			"error":  err.Error(),
			"limit":  limit,
			"offset": offset,
		})
		return nil, err
	}

	return testCases, nil
}

// Count returns the total number of test cases.
func (s *MySQLStore) Count(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&TestCase{}).
		Count(&count).Error

	if err != nil {
		s.logger.Error(ctx, "failed to count test cases", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, err
	}

	return int(count), nil
}

// Revise applies content setters on behalf of an actor. Whether the
// revision overwrites the current version or appends a new one depends on
// whether any execution has ever pinned the case.
func (s *MySQLStore) Revise(ctx context.Context, id, actorID uuid.UUID, setters ...UpdateSetter) (*TestCase, error) {
	if actorID == uuid.Nil {
		return nil, ErrInvalidActor
	}
	if err := s.authz.CanEditCase(ctx, actorID, id); err != nil {
		return nil, err
	}

	var revised *TestCase
	var appended bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the row so a concurrent run creation cannot pin a version
		// this revision is about to rewrite.
		testCase := &TestCase{}
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(testCase).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCaseNotFound
			}
			return err
		}

		for _, setter := range setters {
			if err := setter(testCase); err != nil {
				return err
			}
		}

		if err := testCase.Validate(); err != nil {
			return err
		}

		var pinned int64
		err = tx.WithContext(ctx).
			Table("test_executions").
			Where("case_id = ?", id).
			Count(&pinned).Error
		if err != nil {
			return fmt.Errorf("failed to count executions for case: %w", err)
		}

		if pinned == 0 {
			// Never executed: rewrite the current version in place.
			if err := tx.WithContext(ctx).Save(testCase).Error; err != nil {
				return fmt.Errorf("failed to save test case: %w", err)
			}

			err = tx.WithContext(ctx).
				Model(&CaseVersion{}).
				Where("case_id = ? AND version = ?", id, testCase.Version).
				Updates(map[string]interface{}{
					"summary":    testCase.Summary,
					"steps":      testCase.Steps,
					"notes":      testCase.Notes,
					"created_by": actorID,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to rewrite case snapshot: %w", err)
			}

			revised = testCase
			return nil
		}

		// Executions pin this case: the revision becomes the next version
		// and every prior snapshot stays untouched.
		testCase.Version++
		if err := tx.WithContext(ctx).Save(testCase).Error; err != nil {
			return fmt.Errorf("failed to save test case: %w", err)
		}

		if err := tx.WithContext(ctx).Create(testCase.Snapshot(actorID)).Error; err != nil {
			return fmt.Errorf("failed to create case snapshot: %w", err)
		}

		revised = testCase
		appended = true
		return nil
	})

	if err != nil {
		s.logger.Error(ctx, "failed to revise test case", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
			"actor_id":     actorID.String(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "test case revised", map[string]interface{}{
		"test_case_id": id.String(),
		"actor_id":     actorID.String(),
		"version":      revised.Version,
		"new_version":  appended,
	})

	return revised, nil
}

// SetStatus enables or disables a case without touching its content.
func (s *MySQLStore) SetStatus(ctx context.Context, id uuid.UUID, status CaseStatus) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}

	testCase, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	testCase.Status = status
	if err := s.db.WithContext(ctx).Save(testCase).Error; err != nil {
		s.logger.Error(ctx, "failed to update test case status", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		return err
	}

	s.logger.Info(ctx, "test case status updated", map[string]interface{}{
		"test_case_id": id.String(),
		"status":       string(status),
	})

	return nil
}
