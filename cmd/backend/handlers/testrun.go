package handlers

import (
	"errors"
	"net/http"

	"github.com/caseline/caseline/environment"
	"github.com/caseline/caseline/internal/uuidutil"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
	"github.com/caseline/caseline/testplan"
	"github.com/caseline/caseline/testrun"
)

// TestRunHandler handles test run requests.
type TestRunHandler struct {
	runStore testrun.Store
	logger   logger.Logger
}

// NewTestRunHandler creates a new test run handler.
func NewTestRunHandler(runStore testrun.Store, log logger.Logger) *TestRunHandler {
	return &TestRunHandler{
		runStore: runStore,
		logger:   log,
	}
}

// CreateTestRunRequest represents a test run creation request. CaseIDs
// selects plan members to execute; an empty list is rejected.
type CreateTestRunRequest struct {
	PlanID        string   `json:"plan_id"`
	CaseIDs       []string `json:"case_ids"`
	EnvironmentID string   `json:"environment_id,omitempty"`
	Build         string   `json:"build,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	AssigneeID    string   `json:"assignee_id,omitempty"`
}

// UpdateTestRunRequest represents a run metadata update request.
type UpdateTestRunRequest struct {
	Build         *string `json:"build,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	EnvironmentID *string `json:"environment_id,omitempty"`
}

// Create handles creating a run with one idle execution per selected case.
func (h *TestRunHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateTestRunRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	planID, err := uuidutil.Parse(req.PlanID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid plan_id: must be a valid UUID")
		return
	}

	caseIDs, err := uuidutil.ParseAll(req.CaseIDs)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid case_ids: every entry must be a valid UUID")
		return
	}

	params := testrun.NewRun{
		PlanID:    planID,
		CaseIDs:   caseIDs,
		Build:     req.Build,
		Summary:   req.Summary,
		ManagerID: actorID,
	}

	params.EnvironmentID, err = uuidutil.ParseOptional(req.EnvironmentID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid environment_id: must be a valid UUID")
		return
	}

	params.AssigneeID, err = uuidutil.ParseOptional(req.AssigneeID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid assignee_id: must be a valid UUID")
		return
	}

	run, err := h.runStore.CreateRun(r.Context(), params)
	if err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		if errors.Is(err, environment.ErrEnvironmentNotFound) {
			respondError(w, http.StatusNotFound, "environment not found")
			return
		}
		if errors.Is(err, testcase.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "test case not found")
			return
		}
		if errors.Is(err, testrun.ErrEmptySelection) ||
			errors.Is(err, testrun.ErrCaseDisabled) ||
			errors.Is(err, testplan.ErrCaseNotInPlan) ||
			errors.Is(err, testrun.ErrInvalidPlanID) ||
			errors.Is(err, testrun.ErrInvalidManager) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to create test run", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
			"actor_id":     actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create test run")
		return
	}

	respondJSON(w, http.StatusCreated, run)
}

// GetByID handles getting a single test run by ID.
func (h *TestRunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "run_id", "test run")
	if !ok {
		return
	}

	run, err := h.runStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, testrun.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "test run not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get test run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// Update handles updating a run's metadata. Status changes go through
// Finish and Reopen instead.
func (h *TestRunHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "run_id", "test run")
	if !ok {
		return
	}

	var req UpdateTestRunRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var setters []testrun.UpdateSetter
	if req.Build != nil {
		setters = append(setters, testrun.SetBuild(*req.Build))
	}
	if req.Summary != nil {
		setters = append(setters, testrun.SetSummary(*req.Summary))
	}
	if req.EnvironmentID != nil {
		if *req.EnvironmentID == "" {
			setters = append(setters, testrun.ClearEnvironment())
		} else {
			envID, err := uuidutil.Parse(*req.EnvironmentID)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid environment_id: must be a valid UUID")
				return
			}
			setters = append(setters, testrun.SetEnvironment(envID))
		}
	}

	if len(setters) == 0 {
		respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.runStore.Update(r.Context(), id, setters...); err != nil {
		if errors.Is(err, testrun.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "test run not found")
			return
		}
		if errors.Is(err, environment.ErrEnvironmentNotFound) {
			respondError(w, http.StatusNotFound, "environment not found")
			return
		}
		h.logger.Error(r.Context(), "failed to update test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to update test run")
		return
	}

	updated, err := h.runStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to get updated test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get updated test run")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// Clone handles repeating a run: same cases, same pinned versions,
// statuses reset to idle. The caller becomes the clone's manager.
func (h *TestRunHandler) Clone(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "run_id", "test run")
	if !ok {
		return
	}

	clone, err := h.runStore.CloneRun(r.Context(), id, actorID)
	if err != nil {
		if errors.Is(err, testrun.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "test run not found")
			return
		}
		if errors.Is(err, testrun.ErrInvalidManager) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to clone test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id.String(),
			"actor_id":    actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to clone test run")
		return
	}

	respondJSON(w, http.StatusCreated, clone)
}

// Finish handles closing an open run regardless of remaining work.
func (h *TestRunHandler) Finish(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "run_id", "test run")
	if !ok {
		return
	}

	if err := h.runStore.Finish(r.Context(), id, actorID); err != nil {
		if errors.Is(err, testrun.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "test run not found")
			return
		}
		if errors.Is(err, testrun.ErrRunFinished) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to finish test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id.String(),
			"actor_id":    actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to finish test run")
		return
	}

	finished, err := h.runStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to get finished test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get finished test run")
		return
	}

	respondJSON(w, http.StatusOK, finished)
}

// Reopen handles reopening a finished run.
func (h *TestRunHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "run_id", "test run")
	if !ok {
		return
	}

	if err := h.runStore.Reopen(r.Context(), id, actorID); err != nil {
		if errors.Is(err, testrun.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "test run not found")
			return
		}
		if errors.Is(err, testrun.ErrRunOpen) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to reopen test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id.String(),
			"actor_id":    actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to reopen test run")
		return
	}

	reopened, err := h.runStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to get reopened test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get reopened test run")
		return
	}

	respondJSON(w, http.StatusOK, reopened)
}

// ListByPlan handles listing a plan's runs with pagination.
func (h *TestRunHandler) ListByPlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	limit, offset := parsePagination(r)

	runs, err := h.runStore.ListByPlan(r.Context(), planID, limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list test runs", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list test runs")
		return
	}

	total, err := h.runStore.CountByPlan(r.Context(), planID)
	if err != nil {
		h.logger.Error(r.Context(), "failed to count test runs", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list test runs")
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(runs, total, limit, offset))
}
