package handlers

import (
	"errors"
	"net/http"

	"github.com/caseline/caseline/environment"
	"github.com/caseline/caseline/logger"
)

// EnvironmentHandler handles environment requests.
type EnvironmentHandler struct {
	envStore environment.Store
	logger   logger.Logger
}

// NewEnvironmentHandler creates a new environment handler.
func NewEnvironmentHandler(envStore environment.Store, log logger.Logger) *EnvironmentHandler {
	return &EnvironmentHandler{
		envStore: envStore,
		logger:   log,
	}
}

// CreateEnvironmentRequest represents an environment creation request.
type CreateEnvironmentRequest struct {
	Name        string `json:"name"`
	BaseURL     string `json:"base_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateEnvironmentRequest represents an environment update request.
type UpdateEnvironmentRequest struct {
	Name        *string `json:"name,omitempty"`
	BaseURL     *string `json:"base_url,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Create handles creating a new environment.
func (h *EnvironmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateEnvironmentRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	env := &environment.Environment{
		Name:        req.Name,
		BaseURL:     req.BaseURL,
		Description: req.Description,
		IsActive:    true,
		CreatedBy:   actorID,
	}

	if err := h.envStore.Create(r.Context(), env); err != nil {
		if errors.Is(err, environment.ErrInvalidEnvironmentName) ||
			errors.Is(err, environment.ErrInvalidCreatedBy) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to create environment", map[string]interface{}{
			"error":    err.Error(),
			"actor_id": actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create environment")
		return
	}

	respondJSON(w, http.StatusCreated, env)
}

// List handles listing active environments with pagination.
func (h *EnvironmentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	envs, err := h.envStore.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list environments", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list environments")
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(envs, len(envs), limit, offset))
}

// GetByID handles getting a single environment by ID.
func (h *EnvironmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "environment_id", "environment")
	if !ok {
		return
	}

	env, err := h.envStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, environment.ErrEnvironmentNotFound) {
			respondError(w, http.StatusNotFound, "environment not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get environment", map[string]interface{}{
			"error":          err.Error(),
			"environment_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get environment")
		return
	}

	respondJSON(w, http.StatusOK, env)
}

// Update handles updating an environment.
func (h *EnvironmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "environment_id", "environment")
	if !ok {
		return
	}

	var req UpdateEnvironmentRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var setters []environment.UpdateSetter
	if req.Name != nil {
		setters = append(setters, environment.SetName(*req.Name))
	}
	if req.BaseURL != nil {
		setters = append(setters, environment.SetBaseURL(*req.BaseURL))
	}
	if req.Description != nil {
		setters = append(setters, environment.SetDescription(*req.Description))
	}

	if len(setters) == 0 {
		respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.envStore.Update(r.Context(), id, setters...); err != nil {
		if errors.Is(err, environment.ErrEnvironmentNotFound) {
			respondError(w, http.StatusNotFound, "environment not found")
			return
		}
		if errors.Is(err, environment.ErrInvalidEnvironmentName) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to update environment", map[string]interface{}{
			"error":          err.Error(),
			"environment_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to update environment")
		return
	}

	updated, err := h.envStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to get updated environment", map[string]interface{}{
			"error":          err.Error(),
			"environment_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get updated environment")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// Delete handles soft deleting an environment. Runs that reference it
// keep their pointer for reporting.
func (h *EnvironmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "environment_id", "environment")
	if !ok {
		return
	}

	if err := h.envStore.Delete(r.Context(), id); err != nil {
		if errors.Is(err, environment.ErrEnvironmentNotFound) {
			respondError(w, http.StatusNotFound, "environment not found")
			return
		}
		h.logger.Error(r.Context(), "failed to delete environment", map[string]interface{}{
			"error":          err.Error(),
			"environment_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to delete environment")
		return
	}

	respondSuccess(w, "environment deleted successfully")
}
