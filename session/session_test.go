package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseline/caseline/logger"
)

func TestSession_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "not expired",
			expiresAt: time.Now().Add(time.Hour),
			want:      false,
		},
		{
			name:      "expired",
			expiresAt: time.Now().Add(-time.Hour),
			want:      true,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-time.Second),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &Session{
				ExpiresAt: tt.expiresAt,
			}
			assert.Equal(t, tt.want, session.IsExpired())
		})
	}
}

func TestStore_SetAndGet(t *testing.T) {
	store := NewStore()

	session := &Session{
		ID:        uuid.New(),
		ActorID:   uuid.New(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	store.Set(session)

	retrieved, err := store.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.ActorID, retrieved.ActorID)
}

func TestStore_GetNonExistent(t *testing.T) {
	store := NewStore()

	_, err := store.Get(uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_GetExpired(t *testing.T) {
	store := NewStore()

	session := &Session{
		ID:        uuid.New(),
		ActorID:   uuid.New(),
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	store.Set(session)

	_, err := store.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestStore_Delete(t *testing.T) {
	store := NewStore()

	session := &Session{
		ID:        uuid.New(),
		ActorID:   uuid.New(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}

	store.Set(session)
	store.Delete(session.ID)

	_, err := store.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_Cleanup(t *testing.T) {
	store := NewStore()

	active := &Session{
		ID:        uuid.New(),
		ActorID:   uuid.New(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	store.Set(active)

	expired := &Session{
		ID:        uuid.New(),
		ActorID:   uuid.New(),
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	store.Set(expired)

	removed := store.Cleanup()
	assert.Equal(t, 1, removed)

	_, err := store.Get(active.ID)
	assert.NoError(t, err)

	_, err = store.Get(expired.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_Create(t *testing.T) {
	log := logger.NewTestLogger()
	manager := NewManager(24*time.Hour, log)
	actorID := uuid.New()

	session, err := manager.Create(actorID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, session.ID)
	assert.Equal(t, actorID, session.ActorID)
	assert.False(t, session.IsExpired())
}

func TestManager_CreateRequiresActor(t *testing.T) {
	log := logger.NewTestLogger()
	manager := NewManager(24*time.Hour, log)

	_, err := manager.Create(uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidActor)
}

func TestManager_Get(t *testing.T) {
	log := logger.NewTestLogger()
	manager := NewManager(24*time.Hour, log)

	created, err := manager.Create(uuid.New())
	require.NoError(t, err)

	retrieved, err := manager.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)
	assert.Equal(t, created.ActorID, retrieved.ActorID)
}

func TestManager_GetExpired(t *testing.T) {
	log := logger.NewTestLogger()
	manager := NewManager(time.Millisecond, log)

	created, err := manager.Create(uuid.New())
	require.NoError(t, err)

	// Wait for session to expire
	time.Sleep(10 * time.Millisecond)

	_, err = manager.Get(created.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestManager_Delete(t *testing.T) {
	log := logger.NewTestLogger()
	manager := NewManager(24*time.Hour, log)

	created, err := manager.Create(uuid.New())
	require.NoError(t, err)

	manager.Delete(created.ID)

	_, err = manager.Get(created.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_SameActorHoldsSeveralSessions(t *testing.T) {
	log := logger.NewTestLogger()
	manager := NewManager(24*time.Hour, log)
	actorID := uuid.New()

	first, err := manager.Create(actorID)
	require.NoError(t, err)
	second, err := manager.Create(actorID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	// Dropping one session leaves the actor's other sessions alone.
	manager.Delete(first.ID)
	_, err = manager.Get(second.ID)
	assert.NoError(t, err)
}

func TestManager_Cleanup(t *testing.T) {
	log := logger.NewTestLogger()
	manager := NewManager(50*time.Millisecond, log)

	// Create session that will expire soon
	_, err := manager.Create(uuid.New())
	require.NoError(t, err)

	// Create another active session with longer duration
	manager2 := NewManager(24*time.Hour, log)
	manager2.store = manager.store // Share store
	activeSession, err := manager2.Create(uuid.New())
	require.NoError(t, err)

	// Wait for first session to expire
	time.Sleep(100 * time.Millisecond)

	// Manual cleanup
	removed := manager.store.Cleanup()
	assert.Equal(t, 1, removed)

	// Active session should still be retrievable
	_, err = manager.Get(activeSession.ID)
	assert.NoError(t, err)
}

func TestManager_Concurrent(t *testing.T) {
	log := logger.NewTestLogger()
	manager := NewManager(24*time.Hour, log)

	var wg sync.WaitGroup
	sessionIDs := make(chan uuid.UUID, 100)

	// Create 100 sessions concurrently
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := manager.Create(uuid.New())
			if err == nil {
				sessionIDs <- session.ID
			}
		}()
	}

	wg.Wait()
	close(sessionIDs)

	// Verify all sessions can be retrieved
	count := 0
	for sessionID := range sessionIDs {
		_, err := manager.Get(sessionID)
		assert.NoError(t, err)
		count++
	}

	assert.Equal(t, 100, count)
}
