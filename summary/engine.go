package summary

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testplan"
	"github.com/caseline/caseline/testrun"
)

// Engine answers aggregate questions about runs and plans.
type Engine struct {
	db     *gorm.DB
	execs  testrun.ExecutionStore
	logger logger.Logger
}

// NewEngine creates an aggregation engine over the given stores.
func NewEngine(db *gorm.DB, execs testrun.ExecutionStore, log logger.Logger) *Engine {
	return &Engine{
		db:     db,
		execs:  execs,
		logger: log,
	}
}

// Summarize derives the metrics of one run from its current executions.
func (e *Engine) Summarize(ctx context.Context, runID uuid.UUID) (Summary, error) {
	execs, err := e.execs.ListByRun(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	return Compute(execs), nil
}

// StatusMatrix builds the case-by-run status grid for a plan. Inactive
// plans still report; their runs did happen.
func (e *Engine) StatusMatrix(ctx context.Context, planID uuid.UUID) (StatusMatrix, error) {
	runs, err := e.planRuns(ctx, planID)
	if err != nil {
		return StatusMatrix{}, err
	}

	execs, err := e.runExecutions(ctx, runs)
	if err != nil {
		return StatusMatrix{}, err
	}

	return buildMatrix(planID, runs, execs), nil
}

// CaseHealth tallies per-case records across every run of a plan, worst
// cases first. Cases that never failed or errored are omitted.
func (e *Engine) CaseHealth(ctx context.Context, planID uuid.UUID) ([]CaseHealth, error) {
	runs, err := e.planRuns(ctx, planID)
	if err != nil {
		return nil, err
	}

	execs, err := e.runExecutions(ctx, runs)
	if err != nil {
		return nil, err
	}

	return buildHealth(execs), nil
}

// planRuns loads a plan's runs oldest first, checking the plan exists.
func (e *Engine) planRuns(ctx context.Context, planID uuid.UUID) ([]*testrun.TestRun, error) {
	var plan testplan.TestPlan
	err := e.db.WithContext(ctx).
		Where("id = ?", planID).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, testplan.ErrPlanNotFound
		}
		e.logger.Error(ctx, "failed to get test plan for aggregation", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		return nil, err
	}

	var runs []*testrun.TestRun
	err = e.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("created_at ASC").
		Find(&runs).Error
	if err != nil {
		e.logger.Error(ctx, "failed to list test runs for aggregation", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		return nil, err
	}

	return runs, nil
}

// runExecutions loads all executions of the given runs in plan order.
func (e *Engine) runExecutions(ctx context.Context, runs []*testrun.TestRun) ([]*testrun.TestExecution, error) {
	if len(runs) == 0 {
		return nil, nil
	}

	runIDs := make([]uuid.UUID, 0, len(runs))
	for _, run := range runs {
		runIDs = append(runIDs, run.ID)
	}

	var execs []*testrun.TestExecution
	err := e.db.WithContext(ctx).
		Where("run_id IN ?", runIDs).
		Order("sort_key ASC, created_at ASC").
		Find(&execs).Error
	if err != nil {
		e.logger.Error(ctx, "failed to list executions for aggregation", map[string]interface{}{
			"error": err.Error(),
			"runs":  len(runIDs),
		})
		return nil, err
	}

	return execs, nil
}
