package testrun

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLStepNoteStore_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a note for a pinned step", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)

		note := &StepNote{
			ExecutionID: execs[0].ID,
			StepIndex:   1,
			Notes:       "confirmation page took ~20s",
			NotedBy:     uuid.New(),
		}
		require.NoError(t, s.stepNotes.Upsert(ctx, note))
		assert.NotEqual(t, uuid.Nil, note.ID)

		retrieved, err := s.stepNotes.GetByExecutionAndStep(ctx, execs[0].ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "confirmation page took ~20s", retrieved.Notes)
	})

	t.Run("re-noting a step replaces the text", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)
		notedBy := uuid.New()

		first := &StepNote{ExecutionID: execs[0].ID, StepIndex: 0, Notes: "cart flickered", NotedBy: notedBy}
		require.NoError(t, s.stepNotes.Upsert(ctx, first))

		second := &StepNote{ExecutionID: execs[0].ID, StepIndex: 0, Notes: "cart flickered, reproduced twice", NotedBy: notedBy}
		require.NoError(t, s.stepNotes.Upsert(ctx, second))
		assert.Equal(t, first.ID, second.ID)

		notes, err := s.stepNotes.ListByExecution(ctx, execs[0].ID)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, "cart flickered, reproduced twice", notes[0].Notes)
	})

	t.Run("step index outside the pinned version is rejected", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1) // seeded cases carry two steps

		note := &StepNote{ExecutionID: execs[0].ID, StepIndex: 2, Notes: "no such step", NotedBy: uuid.New()}
		assert.ErrorIs(t, s.stepNotes.Upsert(ctx, note), ErrStepIndexOutOfRange)

		negative := &StepNote{ExecutionID: execs[0].ID, StepIndex: -1, Notes: "no such step", NotedBy: uuid.New()}
		assert.ErrorIs(t, s.stepNotes.Upsert(ctx, negative), ErrStepIndexOutOfRange)
	})

	t.Run("non-existent execution returns error", func(t *testing.T) {
		s := setupTestStores(t)
		seedRun(t, s, 1)

		note := &StepNote{ExecutionID: uuid.New(), StepIndex: 0, Notes: "lost", NotedBy: uuid.New()}
		assert.ErrorIs(t, s.stepNotes.Upsert(ctx, note), ErrExecutionNotFound)
	})
}

func TestMySQLStepNoteStore_ListByExecution(t *testing.T) {
	ctx := context.Background()

	t.Run("lists in step order", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)
		notedBy := uuid.New()

		require.NoError(t, s.stepNotes.Upsert(ctx, &StepNote{
			ExecutionID: execs[0].ID, StepIndex: 1, Notes: "slow", NotedBy: notedBy}))
		require.NoError(t, s.stepNotes.Upsert(ctx, &StepNote{
			ExecutionID: execs[0].ID, StepIndex: 0, Notes: "flickered", NotedBy: notedBy}))

		notes, err := s.stepNotes.ListByExecution(ctx, execs[0].ID)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, 0, notes[0].StepIndex)
		assert.Equal(t, 1, notes[1].StepIndex)
	})

	t.Run("missing note returns error", func(t *testing.T) {
		s := setupTestStores(t)
		_, execs, _ := seedRun(t, s, 1)

		_, err := s.stepNotes.GetByExecutionAndStep(ctx, execs[0].ID, 0)
		assert.ErrorIs(t, err, ErrStepNoteNotFound)
	})
}
