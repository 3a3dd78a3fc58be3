package testcase

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testutil"
)

// pinnedExecution mirrors just enough of the execution table for the
// revise guard to count against.
type pinnedExecution struct {
	ID     uuid.UUID `gorm:"type:char(36);primaryKey"`
	CaseID uuid.UUID `gorm:"type:char(36)"`
}

func (pinnedExecution) TableName() string { return "test_executions" }

// setupTestStore creates a test database and test case store for testing.
func setupTestStore(t *testing.T) (*gorm.DB, *MySQLStore) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &TestCase{}, &CaseVersion{}, &pinnedExecution{})

	log := logger.NewTestLogger()
	store := NewMySQLStore(db, log, authz.NewAllowAll())

	return db, store
}

// createTestCase builds a test case with default values.
func createTestCase(authorID uuid.UUID, summary string) *TestCase {
	return &TestCase{
		Summary: summary,
		Steps: Steps{
			{Action: "Open the login page", Expected: "Login form is shown"},
			{Action: "Submit valid credentials", Expected: "Dashboard is shown"},
		},
		Status:   CaseStatusActive,
		AuthorID: authorID,
	}
}

// pinCase simulates an execution referencing the case.
func pinCase(t *testing.T, db *gorm.DB, caseID uuid.UUID) {
	t.Helper()
	testutil.CreateFixture(t, db, &pinnedExecution{ID: uuid.New(), CaseID: caseID})
}
