package testrun

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseline/caseline/environment"
	"github.com/caseline/caseline/events"
	"github.com/caseline/caseline/testcase"
	"github.com/caseline/caseline/testplan"
	"github.com/caseline/caseline/testutil"
)

func TestMySQLStore_CreateRun(t *testing.T) {
	ctx := context.Background()

	t.Run("creates run with one idle execution per case", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 3)
		managerID := uuid.New()

		run, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, caseIDs(cases), managerID))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, run.ID)
		assert.Equal(t, RunStatusOpen, run.Status)
		assert.Equal(t, plan.ID, run.PlanID)

		execs, err := s.execs.ListByRun(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, execs, 3)
		for i, exec := range execs {
			assert.Equal(t, cases[i].ID, exec.CaseID)
			assert.Equal(t, uint(1), exec.CaseVersion)
			assert.Equal(t, ExecutionStatusIdle, exec.Status)
			assert.Equal(t, uint(1), exec.Token)
		}
	})

	t.Run("executions follow plan order not selection order", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 3)

		reversed := []uuid.UUID{cases[2].ID, cases[0].ID, cases[1].ID}
		run, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, reversed, uuid.New()))
		require.NoError(t, err)

		execs, err := s.execs.ListByRun(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, execs, 3)
		for i, exec := range execs {
			assert.Equal(t, cases[i].ID, exec.CaseID)
		}
	})

	t.Run("writes a creation ledger entry per execution", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 2)

		run, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, caseIDs(cases), uuid.New()))
		require.NoError(t, err)

		execs, err := s.execs.ListByRun(ctx, run.ID)
		require.NoError(t, err)
		for _, exec := range execs {
			records, err := s.history.ListByExecution(ctx, exec.ID)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Nil(t, records[0].FromStatus)
			assert.Equal(t, ExecutionStatusIdle, records[0].ToStatus)
		}
	})

	t.Run("publishes run created event", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 2)

		run, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, caseIDs(cases), uuid.New()))
		require.NoError(t, err)

		recorded := s.recorder.OfName("run.created")
		require.Len(t, recorded, 1)
		created := recorded[0].(events.RunCreated)
		assert.Equal(t, run.ID, created.RunID)
		assert.Equal(t, plan.ID, created.PlanID)
		assert.Equal(t, 2, created.Executions)
	})

	t.Run("duplicate selections collapse", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 2)

		selection := []uuid.UUID{cases[0].ID, cases[0].ID, cases[1].ID, cases[0].ID}
		run, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, selection, uuid.New()))
		require.NoError(t, err)

		execs, err := s.execs.ListByRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Len(t, execs, 2)
	})

	t.Run("empty selection returns error", func(t *testing.T) {
		s := setupTestStores(t)
		plan, _ := seedPlan(t, s, 1)

		_, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, nil, uuid.New()))
		assert.ErrorIs(t, err, ErrEmptySelection)
	})

	t.Run("unknown plan returns error", func(t *testing.T) {
		s := setupTestStores(t)
		_, cases := seedPlan(t, s, 1)

		_, err := s.runs.CreateRun(ctx, newRunParams(uuid.New(), caseIDs(cases), uuid.New()))
		assert.ErrorIs(t, err, testplan.ErrPlanNotFound)
	})

	t.Run("deactivated plan returns error", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 1)
		require.NoError(t, s.plans.Delete(ctx, plan.ID))

		_, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, caseIDs(cases), uuid.New()))
		assert.ErrorIs(t, err, testplan.ErrPlanNotFound)
	})

	t.Run("case outside the plan returns error", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 1)

		stray := &testcase.TestCase{Summary: "Not a member", AuthorID: uuid.New()}
		require.NoError(t, s.cases.Create(ctx, stray))

		selection := append(caseIDs(cases), stray.ID)
		_, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, selection, uuid.New()))
		assert.ErrorIs(t, err, testplan.ErrCaseNotInPlan)
	})

	t.Run("disabled case rejects the whole run", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 2)
		require.NoError(t, s.cases.SetStatus(ctx, cases[1].ID, testcase.CaseStatusDisabled))

		_, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, caseIDs(cases), uuid.New()))
		assert.ErrorIs(t, err, ErrCaseDisabled)

		count, err := s.runs.CountByPlan(ctx, plan.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("pins the current case version", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 1)
		actorID := uuid.New()

		first, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, caseIDs(cases), uuid.New()))
		require.NoError(t, err)

		_, err = s.cases.Revise(ctx, cases[0].ID, actorID,
			testcase.SetSummary("Checkout case 1, revised"))
		require.NoError(t, err)

		second, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, caseIDs(cases), uuid.New()))
		require.NoError(t, err)

		firstExecs, err := s.execs.ListByRun(ctx, first.ID)
		require.NoError(t, err)
		secondExecs, err := s.execs.ListByRun(ctx, second.ID)
		require.NoError(t, err)

		assert.Equal(t, uint(1), firstExecs[0].CaseVersion)
		assert.Equal(t, uint(2), secondExecs[0].CaseVersion)
	})

	t.Run("unknown environment returns error", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 1)

		envID := uuid.New()
		params := newRunParams(plan.ID, caseIDs(cases), uuid.New())
		params.EnvironmentID = &envID

		_, err := s.runs.CreateRun(ctx, params)
		assert.ErrorIs(t, err, environment.ErrEnvironmentNotFound)
	})

	t.Run("known environment is accepted", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 1)

		env := &environment.Environment{
			Name:      "staging",
			BaseURL:   "https://staging.webshop.example",
			IsActive:  true,
			CreatedBy: uuid.New(),
		}
		testutil.CreateFixture(t, s.db, env)

		params := newRunParams(plan.ID, caseIDs(cases), uuid.New())
		params.EnvironmentID = &env.ID

		run, err := s.runs.CreateRun(ctx, params)
		require.NoError(t, err)
		require.NotNil(t, run.EnvironmentID)
		assert.Equal(t, env.ID, *run.EnvironmentID)
	})

	t.Run("missing summary returns error", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 1)

		params := newRunParams(plan.ID, caseIDs(cases), uuid.New())
		params.Summary = ""
		_, err := s.runs.CreateRun(ctx, params)
		assert.ErrorIs(t, err, ErrInvalidSummary)
	})
}

func TestMySQLStore_CloneRun(t *testing.T) {
	ctx := context.Background()

	t.Run("clone repeats pins and resets statuses", func(t *testing.T) {
		s := setupTestStores(t)
		run, execs, cases := seedRun(t, s, 2)
		actorID := uuid.New()

		_, err := s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatusPassed, actorID, "", execs[0].Token)
		require.NoError(t, err)

		// Revision after pinning must not leak into the clone.
		_, err = s.cases.Revise(ctx, cases[0].ID, actorID,
			testcase.SetSummary("Checkout case 1, revised"))
		require.NoError(t, err)

		managerID := uuid.New()
		clone, err := s.runs.CloneRun(ctx, run.ID, managerID)
		require.NoError(t, err)
		assert.NotEqual(t, run.ID, clone.ID)
		assert.Equal(t, run.PlanID, clone.PlanID)
		assert.Equal(t, managerID, clone.ManagerID)
		assert.Equal(t, RunStatusOpen, clone.Status)

		cloneExecs, err := s.execs.ListByRun(ctx, clone.ID)
		require.NoError(t, err)
		require.Len(t, cloneExecs, 2)
		for i, exec := range cloneExecs {
			assert.Equal(t, execs[i].CaseID, exec.CaseID)
			assert.Equal(t, uint(1), exec.CaseVersion)
			assert.Equal(t, ExecutionStatusIdle, exec.Status)
			assert.Equal(t, uint(1), exec.Token)

			records, err := s.history.ListByExecution(ctx, exec.ID)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Nil(t, records[0].FromStatus)
		}
	})

	t.Run("clone publishes run created event", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 2)

		clone, err := s.runs.CloneRun(ctx, run.ID, uuid.New())
		require.NoError(t, err)

		recorded := s.recorder.OfName("run.created")
		require.Len(t, recorded, 1)
		assert.Equal(t, clone.ID, recorded[0].(events.RunCreated).RunID)
	})

	t.Run("non-existent run returns error", func(t *testing.T) {
		s := setupTestStores(t)
		_, err := s.runs.CloneRun(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("missing manager returns error", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)

		_, err := s.runs.CloneRun(ctx, run.ID, uuid.Nil)
		assert.ErrorIs(t, err, ErrInvalidManager)
	})
}

func TestMySQLStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("update build and summary", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)

		err := s.runs.Update(ctx, run.ID, SetBuild("build-1205"), SetSummary("Re-spin"))
		require.NoError(t, err)

		updated, err := s.runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, "build-1205", updated.Build)
		assert.Equal(t, "Re-spin", updated.Summary)
	})

	t.Run("attach and detach environment", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)

		env := &environment.Environment{
			Name:      "staging",
			BaseURL:   "https://staging.webshop.example",
			IsActive:  true,
			CreatedBy: uuid.New(),
		}
		testutil.CreateFixture(t, s.db, env)

		require.NoError(t, s.runs.Update(ctx, run.ID, SetEnvironment(env.ID)))
		updated, err := s.runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.EnvironmentID)
		assert.Equal(t, env.ID, *updated.EnvironmentID)

		require.NoError(t, s.runs.Update(ctx, run.ID, ClearEnvironment()))
		updated, err = s.runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Nil(t, updated.EnvironmentID)
	})

	t.Run("repoint to unknown environment returns error", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)

		err := s.runs.Update(ctx, run.ID, SetEnvironment(uuid.New()))
		assert.ErrorIs(t, err, environment.ErrEnvironmentNotFound)
	})

	t.Run("empty summary returns error", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)

		err := s.runs.Update(ctx, run.ID, SetSummary(""))
		assert.ErrorIs(t, err, ErrInvalidSummary)
	})

	t.Run("non-existent run returns error", func(t *testing.T) {
		s := setupTestStores(t)
		err := s.runs.Update(ctx, uuid.New(), SetBuild("build-1205"))
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}

func TestMySQLStore_ListByPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("lists runs with pagination", func(t *testing.T) {
		s := setupTestStores(t)
		plan, cases := seedPlan(t, s, 1)

		for i := 0; i < 5; i++ {
			_, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, caseIDs(cases), uuid.New()))
			require.NoError(t, err)
		}

		page, err := s.runs.ListByPlan(ctx, plan.ID, 3, 0)
		require.NoError(t, err)
		assert.Len(t, page, 3)

		rest, err := s.runs.ListByPlan(ctx, plan.ID, 3, 3)
		require.NoError(t, err)
		assert.Len(t, rest, 2)

		count, err := s.runs.CountByPlan(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})

	t.Run("plan without runs lists empty", func(t *testing.T) {
		s := setupTestStores(t)
		plan, _ := seedPlan(t, s, 1)

		runs, err := s.runs.ListByPlan(ctx, plan.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestMySQLStore_Finish(t *testing.T) {
	ctx := context.Background()

	t.Run("finish closes an open run", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)
		actorID := uuid.New()

		require.NoError(t, s.runs.Finish(ctx, run.ID, actorID))

		finished, err := s.runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, RunStatusFinished, finished.Status)
		assert.NotNil(t, finished.FinishedAt)

		recorded := s.recorder.OfName("run.finished")
		require.Len(t, recorded, 1)
		assert.Equal(t, run.ID, recorded[0].(events.RunFinished).RunID)
	})

	t.Run("finished run cannot finish again", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)
		require.NoError(t, s.runs.Finish(ctx, run.ID, uuid.New()))

		err := s.runs.Finish(ctx, run.ID, uuid.New())
		assert.ErrorIs(t, err, ErrRunFinished)
	})

	t.Run("missing actor returns error", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)

		err := s.runs.Finish(ctx, run.ID, uuid.Nil)
		assert.ErrorIs(t, err, ErrInvalidActor)
	})
}

func TestMySQLStore_Reopen(t *testing.T) {
	ctx := context.Background()

	t.Run("reopen reverses finish", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)
		require.NoError(t, s.runs.Finish(ctx, run.ID, uuid.New()))

		require.NoError(t, s.runs.Reopen(ctx, run.ID, uuid.New()))

		reopened, err := s.runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, RunStatusOpen, reopened.Status)
		assert.Nil(t, reopened.FinishedAt)
	})

	t.Run("open run cannot reopen", func(t *testing.T) {
		s := setupTestStores(t)
		run, _, _ := seedRun(t, s, 1)

		err := s.runs.Reopen(ctx, run.ID, uuid.New())
		assert.ErrorIs(t, err, ErrRunOpen)
	})
}
