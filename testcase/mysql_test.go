package testcase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/logger"
)

func TestMySQLStore_Create(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("successfully create test case with first snapshot", func(t *testing.T) {
		tc := createTestCase(uuid.New(), "Login with valid credentials")
		err := store.Create(ctx, tc)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, tc.ID)
		assert.Equal(t, uint(1), tc.Version)

		snapshot, err := store.GetVersion(ctx, tc.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, tc.Summary, snapshot.Summary)
		assert.Equal(t, tc.AuthorID, snapshot.CreatedBy)
	})

	t.Run("status defaults to active", func(t *testing.T) {
		tc := &TestCase{
			Summary:  "Logout clears the session",
			AuthorID: uuid.New(),
		}
		err := store.Create(ctx, tc)
		require.NoError(t, err)
		assert.Equal(t, CaseStatusActive, tc.Status)
	})

	t.Run("invalid test case returns error", func(t *testing.T) {
		tc := &TestCase{AuthorID: uuid.New()}
		err := store.Create(ctx, tc)
		assert.ErrorIs(t, err, ErrInvalidSummary)
	})
}

func TestMySQLStore_GetByID(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("retrieve existing test case", func(t *testing.T) {
		tc := createTestCase(uuid.New(), "Password reset sends an email")
		require.NoError(t, store.Create(ctx, tc))

		retrieved, err := store.GetByID(ctx, tc.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.ID, retrieved.ID)
		assert.Equal(t, tc.Summary, retrieved.Summary)
		assert.Len(t, retrieved.Steps, 2)
	})

	t.Run("non-existent test case returns error", func(t *testing.T) {
		_, err := store.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrCaseNotFound)
	})
}

func TestMySQLStore_GetVersion(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	tc := createTestCase(uuid.New(), "Search returns matching items")
	require.NoError(t, store.Create(ctx, tc))

	t.Run("retrieve existing version", func(t *testing.T) {
		snapshot, err := store.GetVersion(ctx, tc.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, uint(1), snapshot.Version)
	})

	t.Run("unknown version returns error", func(t *testing.T) {
		_, err := store.GetVersion(ctx, tc.ID, 7)
		assert.ErrorIs(t, err, ErrVersionNotFound)
	})
}

func TestMySQLStore_Revise(t *testing.T) {
	ctx := context.Background()

	t.Run("unexecuted case is rewritten in place", func(t *testing.T) {
		_, store := setupTestStore(t)
		tc := createTestCase(uuid.New(), "Search returns matching items")
		require.NoError(t, store.Create(ctx, tc))

		editor := uuid.New()
		revised, err := store.Revise(ctx, tc.ID, editor, SetSummary("Search returns matching products"))
		require.NoError(t, err)
		assert.Equal(t, uint(1), revised.Version)

		snapshot, err := store.GetVersion(ctx, tc.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "Search returns matching products", snapshot.Summary)
		assert.Equal(t, editor, snapshot.CreatedBy)

		versions, err := store.ListVersions(ctx, tc.ID)
		require.NoError(t, err)
		assert.Len(t, versions, 1)
	})

	t.Run("executed case gets a new version and keeps old snapshots", func(t *testing.T) {
		db, store := setupTestStore(t)
		tc := createTestCase(uuid.New(), "Checkout applies the discount")
		require.NoError(t, store.Create(ctx, tc))
		pinCase(t, db, tc.ID)

		editor := uuid.New()
		revised, err := store.Revise(ctx, tc.ID, editor,
			SetSummary("Checkout applies the discount code"),
			SetNotes("Discount codes are case sensitive"),
		)
		require.NoError(t, err)
		assert.Equal(t, uint(2), revised.Version)

		original, err := store.GetVersion(ctx, tc.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, "Checkout applies the discount", original.Summary)
		assert.Empty(t, original.Notes)

		latest, err := store.GetVersion(ctx, tc.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, "Checkout applies the discount code", latest.Summary)
		assert.Equal(t, editor, latest.CreatedBy)
	})

	t.Run("repeated revisions keep appending versions", func(t *testing.T) {
		db, store := setupTestStore(t)
		tc := createTestCase(uuid.New(), "Profile photo upload")
		require.NoError(t, store.Create(ctx, tc))
		pinCase(t, db, tc.ID)

		for i := 0; i < 3; i++ {
			_, err := store.Revise(ctx, tc.ID, uuid.New(), SetNotes("pass"))
			require.NoError(t, err)
		}

		versions, err := store.ListVersions(ctx, tc.ID)
		require.NoError(t, err)
		require.Len(t, versions, 4)
		for i, v := range versions {
			assert.Equal(t, uint(i+1), v.Version)
		}
	})

	t.Run("missing actor returns error", func(t *testing.T) {
		_, store := setupTestStore(t)
		tc := createTestCase(uuid.New(), "Notifications can be muted")
		require.NoError(t, store.Create(ctx, tc))

		_, err := store.Revise(ctx, tc.ID, uuid.Nil, SetNotes("updated"))
		assert.ErrorIs(t, err, ErrInvalidActor)
	})

	t.Run("unauthorized actor is rejected", func(t *testing.T) {
		db, _ := setupTestStore(t)
		editor := uuid.New()
		restricted := NewMySQLStore(db, logger.NewTestLogger(), authz.NewStatic(nil, []uuid.UUID{editor}))

		tc := createTestCase(uuid.New(), "Exports respect filters")
		require.NoError(t, restricted.Create(ctx, tc))

		_, err := restricted.Revise(ctx, tc.ID, uuid.New(), SetNotes("updated"))
		assert.ErrorIs(t, err, authz.ErrDenied)

		_, err = restricted.Revise(ctx, tc.ID, editor, SetNotes("updated"))
		assert.NoError(t, err)
	})

	t.Run("invalid revision is rejected", func(t *testing.T) {
		_, store := setupTestStore(t)
		tc := createTestCase(uuid.New(), "Deleting an item asks for confirmation")
		require.NoError(t, store.Create(ctx, tc))

		_, err := store.Revise(ctx, tc.ID, uuid.New(), SetSummary(""))
		assert.ErrorIs(t, err, ErrInvalidSummary)
	})

	t.Run("non-existent case returns error", func(t *testing.T) {
		_, store := setupTestStore(t)
		_, err := store.Revise(ctx, uuid.New(), uuid.New(), SetNotes("updated"))
		assert.ErrorIs(t, err, ErrCaseNotFound)
	})
}

func TestMySQLStore_SetStatus(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	t.Run("disable keeps content and version", func(t *testing.T) {
		tc := createTestCase(uuid.New(), "Invoices can be downloaded")
		require.NoError(t, store.Create(ctx, tc))

		require.NoError(t, store.SetStatus(ctx, tc.ID, CaseStatusDisabled))

		retrieved, err := store.GetByID(ctx, tc.ID)
		require.NoError(t, err)
		assert.Equal(t, CaseStatusDisabled, retrieved.Status)
		assert.Equal(t, uint(1), retrieved.Version)
		assert.Equal(t, tc.Summary, retrieved.Summary)
	})

	t.Run("invalid status returns error", func(t *testing.T) {
		tc := createTestCase(uuid.New(), "Currency is formatted per locale")
		require.NoError(t, store.Create(ctx, tc))

		err := store.SetStatus(ctx, tc.ID, CaseStatus("archived"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("non-existent case returns error", func(t *testing.T) {
		err := store.SetStatus(ctx, uuid.New(), CaseStatusDisabled)
		assert.ErrorIs(t, err, ErrCaseNotFound)
	})
}

func TestMySQLStore_List(t *testing.T) {
	_, store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		tc := createTestCase(uuid.New(), "Listing fixture")
		require.NoError(t, store.Create(ctx, tc))
	}

	t.Run("list with pagination", func(t *testing.T) {
		page1, err := store.List(ctx, 3, 0)
		require.NoError(t, err)
		assert.Len(t, page1, 3)

		page2, err := store.List(ctx, 3, 3)
		require.NoError(t, err)
		assert.Len(t, page2, 2)

		assert.NotEqual(t, page1[0].ID, page2[0].ID)
	})

	t.Run("count matches created cases", func(t *testing.T) {
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})
}
