package testrun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/events"
	"github.com/caseline/caseline/logger"
)

// MySQLExecutionStore implements the ExecutionStore interface using GORM
// and MySQL.
type MySQLExecutionStore struct {
	db        *gorm.DB
	logger    logger.Logger
	authz     authz.Authorizer
	publisher events.Publisher
}

// NewMySQLExecutionStore creates a new MySQL-backed execution store.
func NewMySQLExecutionStore(db *gorm.DB, log logger.Logger, authorizer authz.Authorizer, publisher events.Publisher) *MySQLExecutionStore {
	return &MySQLExecutionStore{
		db:        db,
		logger:    log,
		authz:     authorizer,
		publisher: publisher,
	}
}

// GetByID retrieves a test execution by its ID.
func (s *MySQLExecutionStore) GetByID(ctx context.Context, id uuid.UUID) (*TestExecution, error) {
	var exec TestExecution
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&exec).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExecutionNotFound
		}
		s.logger.Error(ctx, "failed to get test execution by ID", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
		})
		return nil, err
	}

	return &exec, nil
}

// ListByRun retrieves a run's executions in plan order.
func (s *MySQLExecutionStore) ListByRun(ctx context.Context, runID uuid.UUID) ([]*TestExecution, error) {
	var run TestRun
	err := s.db.WithContext(ctx).Where("id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	var execs []*TestExecution
	err = s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("sort_key ASC, created_at ASC").
		Find(&execs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list executions by run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": runID.String(),
		})
		return nil, err
	}

	return execs, nil
}

// ListByCase retrieves every execution of a case, oldest first.
func (s *MySQLExecutionStore) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*TestExecution, error) {
	var execs []*TestExecution
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC").
		Find(&execs).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list executions by case", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": caseID.String(),
		})
		return nil, err
	}

	return execs, nil
}

// SetStatus records a result. The execution row, its ledger entry and any
// run auto-finish commit in one transaction; the caller's token must
// still match when the row lock is taken.
func (s *MySQLExecutionStore) SetStatus(ctx context.Context, id uuid.UUID, status ExecutionStatus, actorID uuid.UUID, comment string, token uint) (*TestExecution, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if actorID == uuid.Nil {
		return nil, ErrInvalidActor
	}

	pre, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanExecute(ctx, actorID, pre.RunID); err != nil {
		return nil, err
	}

	var exec *TestExecution
	var from ExecutionStatus
	var finished *TestRun

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current TestExecution
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExecutionNotFound
			}
			return err
		}

		if current.Token != token {
			return ErrStaleExecution
		}

		from = current.Status
		current.Status = status
		current.TestedBy = &actorID
		current.Token++
		if comment != "" {
			current.appendNote(comment)
		}

		if err := tx.WithContext(ctx).Save(&current).Error; err != nil {
			return fmt.Errorf("failed to save test execution: %w", err)
		}

		record := &TransitionRecord{
			ExecutionID: current.ID,
			RunID:       current.RunID,
			CaseID:      current.CaseID,
			FromStatus:  &from,
			ToStatus:    status,
			ActorID:     actorID,
			Comment:     comment,
		}
		if err := tx.WithContext(ctx).Create(record).Error; err != nil {
			return fmt.Errorf("failed to append transition record: %w", err)
		}

		finished, err = s.autoFinishWithTx(ctx, tx, current.RunID)
		if err != nil {
			return err
		}

		exec = &current
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrStaleExecution) {
			s.logger.Warn(ctx, "stale execution write rejected", map[string]interface{}{
				"execution_id": id.String(),
				"actor_id":     actorID.String(),
				"token":        token,
			})
		} else {
			s.logger.Error(ctx, "failed to set execution status", map[string]interface{}{
				"error":        err.Error(),
				"execution_id": id.String(),
			})
		}
		return nil, err
	}

	s.logger.Info(ctx, "execution status updated", map[string]interface{}{
		"execution_id": exec.ID.String(),
		"test_run_id":  exec.RunID.String(),
		"from":         string(from),
		"to":           string(status),
		"actor_id":     actorID.String(),
	})

	s.publisher.Publish(ctx, events.ExecutionStatusChanged{
		ExecutionID: exec.ID,
		RunID:       exec.RunID,
		CaseID:      exec.CaseID,
		From:        string(from),
		To:          string(status),
		ActorID:     actorID,
		OccurredAt:  time.Now(),
	})

	if finished != nil {
		s.logger.Info(ctx, "test run finished", map[string]interface{}{
			"test_run_id": finished.ID.String(),
		})
		s.publisher.Publish(ctx, events.RunFinished{
			RunID:      finished.ID,
			PlanID:     finished.PlanID,
			OccurredAt: time.Now(),
		})
	}

	return exec, nil
}

// AppendNote adds commentary without changing status.
func (s *MySQLExecutionStore) AppendNote(ctx context.Context, id, actorID uuid.UUID, note string) (*TestExecution, error) {
	if note == "" {
		return nil, ErrInvalidNote
	}
	if actorID == uuid.Nil {
		return nil, ErrInvalidActor
	}

	pre, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanExecute(ctx, actorID, pre.RunID); err != nil {
		return nil, err
	}

	var exec *TestExecution

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current TestExecution
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExecutionNotFound
			}
			return err
		}

		current.appendNote(note)
		current.Token++

		if err := tx.WithContext(ctx).Save(&current).Error; err != nil {
			return fmt.Errorf("failed to save test execution: %w", err)
		}

		exec = &current
		return nil
	})

	if err != nil {
		s.logger.Error(ctx, "failed to append execution note", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "execution note appended", map[string]interface{}{
		"execution_id": exec.ID.String(),
		"actor_id":     actorID.String(),
	})

	return exec, nil
}

// Assign sets or clears the execution's assignee.
func (s *MySQLExecutionStore) Assign(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID) (*TestExecution, error) {
	var exec *TestExecution

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current TestExecution
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExecutionNotFound
			}
			return err
		}

		current.AssigneeID = assigneeID
		current.Token++

		if err := tx.WithContext(ctx).Save(&current).Error; err != nil {
			return fmt.Errorf("failed to save test execution: %w", err)
		}

		exec = &current
		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrExecutionNotFound) {
			s.logger.Error(ctx, "failed to assign execution", map[string]interface{}{
				"error":        err.Error(),
				"execution_id": id.String(),
			})
		}
		return nil, err
	}

	s.logger.Info(ctx, "execution assignee updated", map[string]interface{}{
		"execution_id": exec.ID.String(),
	})

	return exec, nil
}

// autoFinishWithTx closes the run when no idle or running executions
// remain. The count runs inside the caller's transaction, so concurrent
// final transitions serialise on the run row. Auto-finish is one-way;
// re-running an execution later does not reopen the run.
func (s *MySQLExecutionStore) autoFinishWithTx(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*TestRun, error) {
	var run TestRun
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", runID).
		First(&run).Error
	if err != nil {
		return nil, err
	}

	if run.IsFinished() {
		return nil, nil
	}

	var remaining int64
	err = tx.WithContext(ctx).
		Model(&TestExecution{}).
		Where("run_id = ? AND status IN ?", runID,
			[]ExecutionStatus{ExecutionStatusIdle, ExecutionStatusRunning}).
		Count(&remaining).Error
	if err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, nil
	}

	now := time.Now()
	run.Status = RunStatusFinished
	run.FinishedAt = &now
	if err := tx.WithContext(ctx).Save(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to finish test run: %w", err)
	}

	return &run, nil
}
