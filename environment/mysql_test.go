package environment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testutil"
)

func setupTestStore(t *testing.T) Store {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &Environment{})
	return NewMySQLStore(db, logger.NewTestLogger())
}

func TestMySQLStore_Create(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	t.Run("successfully create environment", func(t *testing.T) {
		env := &Environment{
			Name:      "staging",
			BaseURL:   "https://staging.example.com",
			CreatedBy: uuid.New(),
			IsActive:  true,
		}
		err := store.Create(ctx, env)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, env.ID)
	})

	t.Run("missing name returns error", func(t *testing.T) {
		env := &Environment{CreatedBy: uuid.New()}
		err := store.Create(ctx, env)
		assert.ErrorIs(t, err, ErrInvalidEnvironmentName)
	})

	t.Run("missing created_by returns error", func(t *testing.T) {
		env := &Environment{Name: "staging"}
		err := store.Create(ctx, env)
		assert.ErrorIs(t, err, ErrInvalidCreatedBy)
	})
}

func TestMySQLStore_UpdateAndDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	env := &Environment{
		Name:      "qa",
		BaseURL:   "https://qa.example.com",
		CreatedBy: uuid.New(),
		IsActive:  true,
	}
	require.NoError(t, store.Create(ctx, env))

	t.Run("update base URL", func(t *testing.T) {
		err := store.Update(ctx, env.ID, SetBaseURL("https://qa2.example.com"))
		require.NoError(t, err)

		retrieved, err := store.GetByID(ctx, env.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://qa2.example.com", retrieved.BaseURL)
	})

	t.Run("delete hides the environment", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, env.ID))

		_, err := store.GetByID(ctx, env.ID)
		assert.ErrorIs(t, err, ErrEnvironmentNotFound)

		err = store.Delete(ctx, env.ID)
		assert.ErrorIs(t, err, ErrEnvironmentNotFound)
	})
}

func TestMySQLStore_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	names := []string{"dev", "qa", "staging"}
	for _, name := range names {
		env := &Environment{Name: name, CreatedBy: uuid.New(), IsActive: true}
		require.NoError(t, store.Create(ctx, env))
	}

	envs, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, envs, 3)
	assert.Equal(t, "dev", envs[0].Name)
	assert.Equal(t, "staging", envs[2].Name)
}
