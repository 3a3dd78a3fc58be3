package testplan

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
	"github.com/caseline/caseline/testutil"
)

// setupTestStore creates a test database with plan and case stores.
func setupTestStore(t *testing.T) (*gorm.DB, Store, testcase.Store) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &TestPlan{}, &PlanCase{}, &testcase.TestCase{}, &testcase.CaseVersion{})

	log := logger.NewTestLogger()
	store := NewMySQLStore(db, log)
	caseStore := testcase.NewMySQLStore(db, log, authz.NewAllowAll())

	return db, store, caseStore
}

// createTestPlan builds a test plan with default values.
func createTestPlan(name, product string, authorID uuid.UUID) *TestPlan {
	return &TestPlan{
		Name:           name,
		Product:        product,
		ProductVersion: "1.0",
		AuthorID:       authorID,
		IsActive:       true,
	}
}

// createCase stores a minimal test case and returns it.
func createCase(t *testing.T, caseStore testcase.Store, summary string) *testcase.TestCase {
	t.Helper()
	tc := &testcase.TestCase{
		Summary:  summary,
		AuthorID: uuid.New(),
	}
	require.NoError(t, caseStore.Create(context.Background(), tc))
	return tc
}
