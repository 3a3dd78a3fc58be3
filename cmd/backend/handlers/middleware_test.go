package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/session"
)

const testCookieName = "caseline_session"

func newTestMiddleware(t *testing.T) (*ActorMiddleware, *session.Manager, *securecookie.SecureCookie) {
	t.Helper()

	log := logger.NewTestLogger()
	manager := session.NewManager(time.Hour, log)
	codec := securecookie.New([]byte("0123456789abcdef0123456789abcdef"), nil)

	return NewActorMiddleware(manager, codec, testCookieName, log), manager, codec
}

// captureActor records what the middleware established for the inner handler.
type captureActor struct {
	called  bool
	actorID uuid.UUID
	actorOK bool
	method  string
}

func (c *captureActor) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.actorID, c.actorOK = GetActorID(r.Context())
		c.method = GetAuthMethod(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestActorMiddleware_HeaderActor(t *testing.T) {
	t.Run("valid header establishes actor", func(t *testing.T) {
		mw, _, _ := newTestMiddleware(t)
		capture := &captureActor{}
		actorID := uuid.New()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.Header.Set(ActorHeader, actorID.String())
		w := httptest.NewRecorder()

		mw.Handler(capture.handler()).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, capture.called)
		require.True(t, capture.actorOK)
		assert.Equal(t, actorID, capture.actorID)
		assert.Equal(t, "header", capture.method)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		mw, _, _ := newTestMiddleware(t)
		capture := &captureActor{}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.Header.Set(ActorHeader, "not-a-uuid")
		w := httptest.NewRecorder()

		mw.Handler(capture.handler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, capture.called)
	})

	t.Run("nil uuid header is rejected", func(t *testing.T) {
		mw, _, _ := newTestMiddleware(t)
		capture := &captureActor{}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.Header.Set(ActorHeader, uuid.Nil.String())
		w := httptest.NewRecorder()

		mw.Handler(capture.handler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, capture.called)
	})
}

func TestActorMiddleware_SessionActor(t *testing.T) {
	t.Run("signed cookie establishes actor from session", func(t *testing.T) {
		mw, manager, codec := newTestMiddleware(t)
		capture := &captureActor{}
		actorID := uuid.New()

		sess, err := manager.Create(actorID)
		require.NoError(t, err)

		encoded, err := codec.Encode(testCookieName, sess.ID.String())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: encoded})
		w := httptest.NewRecorder()

		mw.Handler(capture.handler()).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, capture.actorOK)
		assert.Equal(t, actorID, capture.actorID)
		assert.Equal(t, "session", capture.method)
	})

	t.Run("missing cookie is rejected", func(t *testing.T) {
		mw, _, _ := newTestMiddleware(t)
		capture := &captureActor{}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		w := httptest.NewRecorder()

		mw.Handler(capture.handler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, capture.called)
	})

	t.Run("cookie signed with another key is rejected", func(t *testing.T) {
		mw, manager, _ := newTestMiddleware(t)
		capture := &captureActor{}

		sess, err := manager.Create(uuid.New())
		require.NoError(t, err)

		otherCodec := securecookie.New([]byte("ffffffffffffffffffffffffffffffff"), nil)
		encoded, err := otherCodec.Encode(testCookieName, sess.ID.String())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: encoded})
		w := httptest.NewRecorder()

		mw.Handler(capture.handler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, capture.called)
	})

	t.Run("signed cookie for deleted session is rejected", func(t *testing.T) {
		mw, manager, codec := newTestMiddleware(t)
		capture := &captureActor{}

		sess, err := manager.Create(uuid.New())
		require.NoError(t, err)
		manager.Delete(sess.ID)

		encoded, err := codec.Encode(testCookieName, sess.ID.String())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: encoded})
		w := httptest.NewRecorder()

		mw.Handler(capture.handler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, capture.called)
	})

	t.Run("header wins over cookie when both present", func(t *testing.T) {
		mw, manager, codec := newTestMiddleware(t)
		capture := &captureActor{}
		headerActor := uuid.New()

		sess, err := manager.Create(uuid.New())
		require.NoError(t, err)
		encoded, err := codec.Encode(testCookieName, sess.ID.String())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.Header.Set(ActorHeader, headerActor.String())
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: encoded})
		w := httptest.NewRecorder()

		mw.Handler(capture.handler()).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, headerActor, capture.actorID)
		assert.Equal(t, "header", capture.method)
	})
}

func TestRequireActor(t *testing.T) {
	t.Run("responds 401 without an actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", nil)
		w := httptest.NewRecorder()

		_, ok := requireActor(w, req)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
