package summary

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/events"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
	"github.com/caseline/caseline/testplan"
	"github.com/caseline/caseline/testrun"
	"github.com/caseline/caseline/testutil"
)

// testHarness wires an engine against real stores on one test database.
type testHarness struct {
	db     *gorm.DB
	engine *Engine
	runs   testrun.Store
	execs  testrun.ExecutionStore
	cases  testcase.Store
	plans  testplan.Store
}

func setupEngine(t *testing.T) *testHarness {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db,
		&testcase.TestCase{}, &testcase.CaseVersion{},
		&testplan.TestPlan{}, &testplan.PlanCase{},
		&testrun.TestRun{}, &testrun.TestExecution{}, &testrun.TransitionRecord{},
	)

	log := logger.NewTestLogger()
	publisher := events.NewRecorder()
	execs := testrun.NewMySQLExecutionStore(db, log, authz.NewAllowAll(), publisher)

	return &testHarness{
		db:     db,
		engine: NewEngine(db, execs, log),
		runs:   testrun.NewMySQLStore(db, log, publisher),
		execs:  execs,
		cases:  testcase.NewMySQLStore(db, log, authz.NewAllowAll()),
		plans:  testplan.NewMySQLStore(db, log),
	}
}

// seedPlan creates an active plan with n member cases.
func seedPlan(t *testing.T, h *testHarness, n int) (*testplan.TestPlan, []*testcase.TestCase) {
	t.Helper()
	ctx := context.Background()

	plan := &testplan.TestPlan{
		Name:     "Payments regression",
		Product:  "webshop",
		AuthorID: uuid.New(),
		IsActive: true,
	}
	require.NoError(t, h.plans.Create(ctx, plan))

	cases := make([]*testcase.TestCase, 0, n)
	for i := 0; i < n; i++ {
		tc := &testcase.TestCase{
			Summary:  fmt.Sprintf("Payment case %d", i+1),
			AuthorID: plan.AuthorID,
		}
		require.NoError(t, h.cases.Create(ctx, tc))
		require.NoError(t, h.plans.AddCase(ctx, plan.ID, tc.ID, plan.AuthorID, 0))
		cases = append(cases, tc)
	}

	return plan, cases
}

// createRun builds a run over the given cases.
func createRun(t *testing.T, h *testHarness, planID uuid.UUID, cases []*testcase.TestCase) (*testrun.TestRun, []*testrun.TestExecution) {
	t.Helper()
	ctx := context.Background()

	ids := make([]uuid.UUID, 0, len(cases))
	for _, tc := range cases {
		ids = append(ids, tc.ID)
	}

	run, err := h.runs.CreateRun(ctx, testrun.NewRun{
		PlanID:    planID,
		CaseIDs:   ids,
		Summary:   "Regression sweep",
		ManagerID: uuid.New(),
	})
	require.NoError(t, err)

	execs, err := h.execs.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, execs, len(cases))

	return run, execs
}

// setStatus records a result using the execution's current token.
func setStatus(t *testing.T, h *testHarness, execID uuid.UUID, status testrun.ExecutionStatus) {
	t.Helper()
	ctx := context.Background()

	current, err := h.execs.GetByID(ctx, execID)
	require.NoError(t, err)
	_, err = h.execs.SetStatus(ctx, execID, status, uuid.New(), "", current.Token)
	require.NoError(t, err)
}
