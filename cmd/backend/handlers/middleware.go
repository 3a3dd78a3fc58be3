package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/session"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// ActorIDKey is the context key for the acting identity.
	ActorIDKey ContextKey = "actor_id"

	// AuthMethodKey is the context key for how the actor was established.
	AuthMethodKey ContextKey = "auth_method"
)

// ActorHeader carries an actor reference directly, for automation
// clients calling from behind the trusted frontend.
const ActorHeader = "X-Actor-ID"

// ActorMiddleware establishes the acting identity for a request, either
// from the X-Actor-ID header or from a signed session cookie. Actors are
// opaque references; no identity records back them here.
type ActorMiddleware struct {
	sessionManager *session.Manager
	cookieCodec    *securecookie.SecureCookie
	cookieName     string
	logger         logger.Logger
}

// NewActorMiddleware creates a new actor middleware.
func NewActorMiddleware(sessionManager *session.Manager, cookieCodec *securecookie.SecureCookie, cookieName string, log logger.Logger) *ActorMiddleware {
	return &ActorMiddleware{
		sessionManager: sessionManager,
		cookieCodec:    cookieCodec,
		cookieName:     cookieName,
		logger:         log,
	}
}

// Handler wraps an HTTP handler with actor resolution.
func (m *ActorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get(ActorHeader); header != "" {
			m.handleHeaderActor(w, r, next, header)
			return
		}

		m.handleSessionActor(w, r, next)
	})
}

// handleHeaderActor takes the actor reference straight from the header.
func (m *ActorMiddleware) handleHeaderActor(w http.ResponseWriter, r *http.Request, next http.Handler, header string) {
	actorID, err := uuid.Parse(header)
	if err != nil || actorID == uuid.Nil {
		m.logger.Warn(r.Context(), "invalid actor header", map[string]interface{}{
			"path": r.URL.Path,
		})
		respondError(w, http.StatusUnauthorized, "invalid actor reference")
		return
	}

	ctx := context.WithValue(r.Context(), ActorIDKey, actorID)
	ctx = context.WithValue(ctx, AuthMethodKey, "header")

	next.ServeHTTP(w, r.WithContext(ctx))
}

// handleSessionActor resolves the actor through a signed session cookie.
func (m *ActorMiddleware) handleSessionActor(w http.ResponseWriter, r *http.Request, next http.Handler) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		m.logger.Warn(r.Context(), "missing session cookie", map[string]interface{}{
			"path": r.URL.Path,
		})
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var raw string
	if err := m.cookieCodec.Decode(m.cookieName, cookie.Value, &raw); err != nil {
		m.logger.Warn(r.Context(), "session cookie failed verification", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	sessionID, err := uuid.Parse(raw)
	if err != nil {
		m.logger.Warn(r.Context(), "invalid session ID format", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	sess, err := m.sessionManager.Get(sessionID)
	if err != nil {
		m.logger.Warn(r.Context(), "invalid or expired session", map[string]interface{}{
			"error":      err.Error(),
			"session_id": sessionID.String(),
		})
		respondError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}

	ctx := context.WithValue(r.Context(), ActorIDKey, sess.ActorID)
	ctx = context.WithValue(ctx, AuthMethodKey, "session")

	next.ServeHTTP(w, r.WithContext(ctx))
}

// GetActorID extracts the actor reference from the request context.
func GetActorID(ctx context.Context) (uuid.UUID, bool) {
	actorID, ok := ctx.Value(ActorIDKey).(uuid.UUID)
	return actorID, ok
}

// GetAuthMethod extracts the authentication method from the request context.
func GetAuthMethod(ctx context.Context) string {
	method, ok := ctx.Value(AuthMethodKey).(string)
	if !ok {
		return "session"
	}
	return method
}

// requireActor extracts the actor from context, responding 401 when the
// middleware did not establish one.
func requireActor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actorID, ok := GetActorID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "actor not established")
		return uuid.Nil, false
	}
	return actorID, true
}
