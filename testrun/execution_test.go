package testrun

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/events"
	"github.com/caseline/caseline/logger"
)

func TestMySQLExecutionStore_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("records result and advances token", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 2)
		actorID := uuid.New()

		updated, err := s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatusRunning, actorID, "", execs[0].Token)
		require.NoError(t, err)
		assert.Equal(t, ExecutionStatusRunning, updated.Status)
		assert.Equal(t, uint(2), updated.Token)
		require.NotNil(t, updated.TestedBy)
		assert.Equal(t, actorID, *updated.TestedBy)
	})

	t.Run("any status may follow any other", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 2)
		actorID := uuid.New()
		execID := execs[0].ID

		sequence := []ExecutionStatus{
			ExecutionStatusPassed,
			ExecutionStatusFailed,
			ExecutionStatusIdle,
			ExecutionStatusBlocked,
			ExecutionStatusWaived,
			ExecutionStatusRunning,
		}

		token := execs[0].Token
		for _, status := range sequence {
			updated, err := s.execs.SetStatus(ctx, execID, status, actorID, "", token)
			require.NoError(t, err)
			assert.Equal(t, status, updated.Status)
			token = updated.Token
		}
	})

	t.Run("stale token is rejected without side effects", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 2)
		actorID := uuid.New()
		execID := execs[0].ID

		_, err := s.execs.SetStatus(ctx, execID, ExecutionStatusRunning, actorID, "", 1)
		require.NoError(t, err)

		_, err = s.execs.SetStatus(ctx, execID, ExecutionStatusPassed, actorID, "", 1)
		assert.ErrorIs(t, err, ErrStaleExecution)

		current, err := s.execs.GetByID(ctx, execID)
		require.NoError(t, err)
		assert.Equal(t, ExecutionStatusRunning, current.Status)
		assert.Equal(t, uint(2), current.Token)

		records, err := s.history.ListByExecution(ctx, execID)
		require.NoError(t, err)
		assert.Len(t, records, 2) // creation + the one successful transition
	})

	t.Run("comment lands in notes and ledger", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 2)
		actorID := uuid.New()

		updated, err := s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatusFailed, actorID,
			"payment gateway timed out", execs[0].Token)
		require.NoError(t, err)
		assert.Contains(t, updated.Notes, "payment gateway timed out")

		records, err := s.history.ListByExecution(ctx, execs[0].ID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		last := records[len(records)-1]
		require.NotNil(t, last.FromStatus)
		assert.Equal(t, ExecutionStatusIdle, *last.FromStatus)
		assert.Equal(t, ExecutionStatusFailed, last.ToStatus)
		assert.Equal(t, actorID, last.ActorID)
		assert.Equal(t, "payment gateway timed out", last.Comment)
	})

	t.Run("publishes status changed event", func(t *testing.T) {
		s := setupTestStores(t)
		run, execs, _ := seedRun(t, s, 2)
		actorID := uuid.New()

		_, err := s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatusRunning, actorID, "", execs[0].Token)
		require.NoError(t, err)

		recorded := s.recorder.OfName("execution.status_changed")
		require.Len(t, recorded, 1)
		changed := recorded[0].(events.ExecutionStatusChanged)
		assert.Equal(t, execs[0].ID, changed.ExecutionID)
		assert.Equal(t, run.ID, changed.RunID)
		assert.Equal(t, "idle", changed.From)
		assert.Equal(t, "running", changed.To)
		assert.Equal(t, actorID, changed.ActorID)
	})

	t.Run("last terminal result auto-finishes the run", func(t *testing.T) {
		s := setupTestStores(t)
		run, execs, _ := seedRun(t, s, 2)
		actorID := uuid.New()

		_, err := s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatusPassed, actorID, "", execs[0].Token)
		require.NoError(t, err)

		open, err := s.runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, RunStatusOpen, open.Status)

		_, err = s.execs.SetStatus(ctx, execs[1].ID, ExecutionStatusFailed, actorID, "", execs[1].Token)
		require.NoError(t, err)

		finished, err := s.runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, RunStatusFinished, finished.Status)
		assert.NotNil(t, finished.FinishedAt)

		recorded := s.recorder.OfName("run.finished")
		require.Len(t, recorded, 1)
		assert.Equal(t, run.ID, recorded[0].(events.RunFinished).RunID)
	})

	t.Run("waived counts as completed for auto-finish", func(t *testing.T) {
		s := setupTestStores(t)
		run, execs, _ := seedRun(t, s, 1)

		_, err := s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatusWaived, uuid.New(), "", execs[0].Token)
		require.NoError(t, err)

		finished, err := s.runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, RunStatusFinished, finished.Status)
	})

	t.Run("re-run after auto-finish does not reopen the run", func(t *testing.T) {
		s := setupTestStores(t)
		run, execs, _ := seedRun(t, s, 1)
		actorID := uuid.New()

		updated, err := s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatusPassed, actorID, "", execs[0].Token)
		require.NoError(t, err)

		_, err = s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatusFailed, actorID, "flaky on retry", updated.Token)
		require.NoError(t, err)

		still, err := s.runs.GetByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, RunStatusFinished, still.Status)

		// Only the first completion finished the run.
		assert.Len(t, s.recorder.OfName("run.finished"), 1)
	})

	t.Run("unauthorized actor is rejected", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)

		tester := uuid.New()
		outsider := uuid.New()
		restricted := NewMySQLExecutionStore(s.db, logger.NewTestLogger(),
			authz.NewStatic([]uuid.UUID{tester}, nil), s.recorder)

		_, err := restricted.SetStatus(ctx, execs[0].ID, ExecutionStatusPassed, outsider, "", execs[0].Token)
		assert.ErrorIs(t, err, authz.ErrDenied)

		_, err = restricted.SetStatus(ctx, execs[0].ID, ExecutionStatusPassed, tester, "", execs[0].Token)
		require.NoError(t, err)
	})

	t.Run("invalid status returns error", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)

		_, err := s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatus("skipped"), uuid.New(), "", execs[0].Token)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("missing actor returns error", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)

		_, err := s.execs.SetStatus(ctx, execs[0].ID, ExecutionStatusPassed, uuid.Nil, "", execs[0].Token)
		assert.ErrorIs(t, err, ErrInvalidActor)
	})

	t.Run("non-existent execution returns error", func(t *testing.T) {
		s := setupTestStores(t)
		seedRun(t, s, 1)

		_, err := s.execs.SetStatus(ctx, uuid.New(), ExecutionStatusPassed, uuid.New(), "", 1)
		assert.ErrorIs(t, err, ErrExecutionNotFound)
	})
}

func TestMySQLExecutionStore_AppendNote(t *testing.T) {
	ctx := context.Background()

	t.Run("appends note and advances token", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)
		actorID := uuid.New()

		updated, err := s.execs.AppendNote(ctx, execs[0].ID, actorID, "left running overnight")
		require.NoError(t, err)
		assert.Equal(t, "left running overnight", updated.Notes)
		assert.Equal(t, uint(2), updated.Token)

		updated, err = s.execs.AppendNote(ctx, execs[0].ID, actorID, "still stuck this morning")
		require.NoError(t, err)
		assert.Equal(t, "left running overnight\nstill stuck this morning", updated.Notes)
		assert.Equal(t, uint(3), updated.Token)
	})

	t.Run("notes leave no ledger entry and publish nothing", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)

		_, err := s.execs.AppendNote(ctx, execs[0].ID, uuid.New(), "no status change")
		require.NoError(t, err)

		records, err := s.history.ListByExecution(ctx, execs[0].ID)
		require.NoError(t, err)
		assert.Len(t, records, 1) // creation only
		assert.Empty(t, s.recorder.Events())
	})

	t.Run("empty note returns error", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)

		_, err := s.execs.AppendNote(ctx, execs[0].ID, uuid.New(), "")
		assert.ErrorIs(t, err, ErrInvalidNote)
	})

	t.Run("non-existent execution returns error", func(t *testing.T) {
		s := setupTestStores(t)
		seedRun(t, s, 1)

		_, err := s.execs.AppendNote(ctx, uuid.New(), uuid.New(), "lost")
		assert.ErrorIs(t, err, ErrExecutionNotFound)
	})
}

func TestMySQLExecutionStore_Assign(t *testing.T) {
	ctx := context.Background()

	t.Run("assign and clear", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)
		testerID := uuid.New()

		updated, err := s.execs.Assign(ctx, execs[0].ID, &testerID)
		require.NoError(t, err)
		require.NotNil(t, updated.AssigneeID)
		assert.Equal(t, testerID, *updated.AssigneeID)
		assert.Equal(t, uint(2), updated.Token)

		updated, err = s.execs.Assign(ctx, execs[0].ID, nil)
		require.NoError(t, err)
		assert.Nil(t, updated.AssigneeID)
		assert.Equal(t, uint(3), updated.Token)
	})

	t.Run("non-existent execution returns error", func(t *testing.T) {
		s := setupTestStores(t)
		_, err := s.execs.Assign(ctx, uuid.New(), nil)
		assert.ErrorIs(t, err, ErrExecutionNotFound)
	})
}

func TestMySQLExecutionStore_ListByRun(t *testing.T) {
	ctx := context.Background()

	t.Run("non-existent run returns error", func(t *testing.T) {
		s := setupTestStores(t)
		_, err := s.execs.ListByRun(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}

func TestMySQLExecutionStore_ListByCase(t *testing.T) {
	ctx := context.Background()

	t.Run("spans runs oldest first", func(t *testing.T) {
		s := setupTestStores(t)
		run, execs, cases := seedRun(t, s, 1)

		clone, err := s.runs.CloneRun(ctx, run.ID, uuid.New())
		require.NoError(t, err)

		all, err := s.execs.ListByCase(ctx, cases[0].ID)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, execs[0].ID, all[0].ID)
		assert.Equal(t, clone.ID, all[1].RunID)
	})
}
