package testrun

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/environment"
	"github.com/caseline/caseline/events"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
	"github.com/caseline/caseline/testplan"
	"github.com/caseline/caseline/testutil"
)

// testStores bundles the package's stores wired against one test database.
// The recorder captures published events synchronously.
type testStores struct {
	db          *gorm.DB
	runs        Store
	execs       ExecutionStore
	history     HistoryStore
	links       LinkStore
	attachments AttachmentStore
	stepNotes   StepNoteStore
	cases       testcase.Store
	plans       testplan.Store
	recorder    *events.Recorder
}

// setupTestStores creates a test database with every store in the package.
func setupTestStores(t *testing.T) *testStores {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db,
		&testcase.TestCase{}, &testcase.CaseVersion{},
		&testplan.TestPlan{}, &testplan.PlanCase{},
		&environment.Environment{},
		&TestRun{}, &TestExecution{}, &TransitionRecord{},
		&ExecutionLink{}, &ExecutionAttachment{}, &StepNote{},
	)

	log := logger.NewTestLogger()
	recorder := events.NewRecorder()

	return &testStores{
		db:          db,
		runs:        NewMySQLStore(db, log, recorder),
		execs:       NewMySQLExecutionStore(db, log, authz.NewAllowAll(), recorder),
		history:     NewMySQLHistoryStore(db, log),
		links:       NewMySQLLinkStore(db, log),
		attachments: NewMySQLAttachmentStore(db, log),
		stepNotes:   NewMySQLStepNoteStore(db, log),
		cases:       testcase.NewMySQLStore(db, log, authz.NewAllowAll()),
		plans:       testplan.NewMySQLStore(db, log),
		recorder:    recorder,
	}
}

// seedPlan creates an active plan with n member cases in plan order.
func seedPlan(t *testing.T, s *testStores, n int) (*testplan.TestPlan, []*testcase.TestCase) {
	t.Helper()
	ctx := context.Background()

	plan := &testplan.TestPlan{
		Name:           "Checkout regression",
		Product:        "webshop",
		ProductVersion: "2.4",
		AuthorID:       uuid.New(),
		IsActive:       true,
	}
	require.NoError(t, s.plans.Create(ctx, plan))

	cases := make([]*testcase.TestCase, 0, n)
	for i := 0; i < n; i++ {
		tc := &testcase.TestCase{
			Summary: fmt.Sprintf("Checkout case %d", i+1),
			Steps: testcase.Steps{
				{Action: "Add an item to the cart", Expected: "Cart shows one item"},
				{Action: "Pay with a valid card", Expected: "Order confirmation is shown"},
			},
			AuthorID: plan.AuthorID,
		}
		require.NoError(t, s.cases.Create(ctx, tc))
		require.NoError(t, s.plans.AddCase(ctx, plan.ID, tc.ID, plan.AuthorID, 0))
		cases = append(cases, tc)
	}

	return plan, cases
}

// caseIDs extracts ids preserving order.
func caseIDs(cases []*testcase.TestCase) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(cases))
	for _, tc := range cases {
		ids = append(ids, tc.ID)
	}
	return ids
}

// newRunParams builds CreateRun parameters with default values.
func newRunParams(planID uuid.UUID, ids []uuid.UUID, managerID uuid.UUID) NewRun {
	return NewRun{
		PlanID:    planID,
		CaseIDs:   ids,
		Build:     "build-1204",
		Summary:   "Nightly regression",
		ManagerID: managerID,
	}
}

// seedRun creates a plan with n cases and an open run covering all of them.
// Events recorded during seeding are discarded.
func seedRun(t *testing.T, s *testStores, n int) (*TestRun, []*TestExecution, []*testcase.TestCase) {
	t.Helper()
	ctx := context.Background()

	plan, cases := seedPlan(t, s, n)
	run, err := s.runs.CreateRun(ctx, newRunParams(plan.ID, caseIDs(cases), uuid.New()))
	require.NoError(t, err)

	execs, err := s.execs.ListByRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, execs, n)

	s.recorder.Reset()
	return run, execs, cases
}
