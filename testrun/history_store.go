package testrun

import (
	"context"

	"github.com/google/uuid"
)

// HistoryStore reads the append-only transition ledger. There is no write
// half: ledger entries are only ever created inside run-creation and
// status-change transactions, and nothing updates or deletes them.
type HistoryStore interface {
	// ListByExecution retrieves an execution's transitions oldest first.
	// The first record is always the creation entry with a nil FromStatus.
	ListByExecution(ctx context.Context, executionID uuid.UUID) ([]*TransitionRecord, error)

	// ListByCase retrieves transitions for every execution of a case
	// across all runs and case versions, oldest first.
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*TransitionRecord, error)
}
