package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/session"
)

// SessionHandler issues and revokes actor sessions. Actors are opaque
// references owned by an external identity system; starting a session
// only requires naming one.
type SessionHandler struct {
	sessionManager *session.Manager
	cookieCodec    *securecookie.SecureCookie
	cookieName     string
	cookieSecure   bool
	logger         logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(
	sessionManager *session.Manager,
	cookieCodec *securecookie.SecureCookie,
	cookieName string,
	cookieSecure bool,
	log logger.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessionManager: sessionManager,
		cookieCodec:    cookieCodec,
		cookieName:     cookieName,
		cookieSecure:   cookieSecure,
		logger:         log,
	}
}

// LoginRequest represents a session creation request.
type LoginRequest struct {
	ActorID string `json:"actor_id"`
}

// SessionResponse represents an established session.
type SessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	ActorID   uuid.UUID `json:"actor_id"`
	ExpiresAt string    `json:"expires_at"`
}

// Login starts a session for an actor and sets the signed cookie.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actorID, err := uuid.Parse(req.ActorID)
	if err != nil || actorID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "actor_id must be a valid UUID")
		return
	}

	sess, err := h.sessionManager.Create(actorID)
	if err != nil {
		if errors.Is(err, session.ErrInvalidActor) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to create session", map[string]interface{}{
			"error":    err.Error(),
			"actor_id": actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	if err := h.setSessionCookie(w, sess.ID); err != nil {
		h.logger.Error(r.Context(), "failed to sign session cookie", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.logger.Info(r.Context(), "session started", map[string]interface{}{
		"session_id": sess.ID.String(),
		"actor_id":   actorID.String(),
	})

	respondJSON(w, http.StatusCreated, SessionResponse{
		SessionID: sess.ID,
		ActorID:   sess.ActorID,
		ExpiresAt: sess.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Current reports the session behind the request's cookie.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromCookie(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "no active session")
		return
	}

	respondJSON(w, http.StatusOK, SessionResponse{
		SessionID: sess.ID,
		ActorID:   sess.ActorID,
		ExpiresAt: sess.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// Logout ends the session behind the request's cookie.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.sessionFromCookie(r); ok {
		h.sessionManager.Delete(sess.ID)
	}

	h.clearSessionCookie(w)
	respondSuccess(w, "logged out successfully")
}

// sessionFromCookie verifies the request's cookie and loads its session.
func (h *SessionHandler) sessionFromCookie(r *http.Request) (*session.Session, bool) {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		return nil, false
	}

	var raw string
	if err := h.cookieCodec.Decode(h.cookieName, cookie.Value, &raw); err != nil {
		return nil, false
	}

	sessionID, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}

	sess, err := h.sessionManager.Get(sessionID)
	if err != nil {
		return nil, false
	}
	return sess, true
}

// setSessionCookie signs the session ID and sets it as a cookie.
func (h *SessionHandler) setSessionCookie(w http.ResponseWriter, sessionID uuid.UUID) error {
	encoded, err := h.cookieCodec.Encode(h.cookieName, sessionID.String())
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// clearSessionCookie clears the session cookie.
func (h *SessionHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
