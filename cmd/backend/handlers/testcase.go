package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
)

// TestCaseHandler handles test case requests.
type TestCaseHandler struct {
	caseStore testcase.Store
	logger    logger.Logger
}

// NewTestCaseHandler creates a new test case handler.
func NewTestCaseHandler(caseStore testcase.Store, log logger.Logger) *TestCaseHandler {
	return &TestCaseHandler{
		caseStore: caseStore,
		logger:    log,
	}
}

// CreateTestCaseRequest represents a test case creation request.
type CreateTestCaseRequest struct {
	Summary string         `json:"summary"`
	Steps   testcase.Steps `json:"steps,omitempty"`
	Notes   string         `json:"notes,omitempty"`
}

// ReviseTestCaseRequest represents a content revision request. Only the
// fields present are touched.
type ReviseTestCaseRequest struct {
	Summary *string         `json:"summary,omitempty"`
	Steps   *testcase.Steps `json:"steps,omitempty"`
	Notes   *string         `json:"notes,omitempty"`
}

// SetCaseStatusRequest represents a status change request.
type SetCaseStatusRequest struct {
	Status string `json:"status"`
}

// Create handles creating a new test case.
func (h *TestCaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateTestCaseRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tc := &testcase.TestCase{
		Summary:  req.Summary,
		Steps:    req.Steps,
		Notes:    req.Notes,
		Status:   testcase.CaseStatusActive,
		AuthorID: actorID,
	}

	if err := h.caseStore.Create(r.Context(), tc); err != nil {
		if errors.Is(err, testcase.ErrInvalidSummary) ||
			errors.Is(err, testcase.ErrInvalidSteps) ||
			errors.Is(err, testcase.ErrInvalidAuthor) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to create test case", map[string]interface{}{
			"error":    err.Error(),
			"actor_id": actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create test case")
		return
	}

	respondJSON(w, http.StatusCreated, tc)
}

// List handles listing test cases with pagination.
func (h *TestCaseHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	cases, err := h.caseStore.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list test cases", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list test cases")
		return
	}

	total, err := h.caseStore.Count(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "failed to count test cases", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list test cases")
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(cases, total, limit, offset))
}

// GetByID handles getting the current content of a test case.
func (h *TestCaseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "case_id", "test case")
	if !ok {
		return
	}

	tc, err := h.caseStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, testcase.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "test case not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get test case", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get test case")
		return
	}

	respondJSON(w, http.StatusOK, tc)
}

// Revise handles revising the content of a test case. The store decides
// whether the revision rewrites the current version or appends a new one.
func (h *TestCaseHandler) Revise(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "case_id", "test case")
	if !ok {
		return
	}

	var req ReviseTestCaseRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var setters []testcase.UpdateSetter
	if req.Summary != nil {
		setters = append(setters, testcase.SetSummary(*req.Summary))
	}
	if req.Steps != nil {
		setters = append(setters, testcase.SetSteps(*req.Steps))
	}
	if req.Notes != nil {
		setters = append(setters, testcase.SetNotes(*req.Notes))
	}

	if len(setters) == 0 {
		respondError(w, http.StatusBadRequest, "no fields to revise")
		return
	}

	revised, err := h.caseStore.Revise(r.Context(), id, actorID, setters...)
	if err != nil {
		if errors.Is(err, testcase.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "test case not found")
			return
		}
		if errors.Is(err, authz.ErrDenied) {
			respondError(w, http.StatusForbidden, "not allowed to edit this test case")
			return
		}
		if errors.Is(err, testcase.ErrInvalidSummary) ||
			errors.Is(err, testcase.ErrInvalidSteps) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to revise test case", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
			"actor_id":     actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to revise test case")
		return
	}

	respondJSON(w, http.StatusOK, revised)
}

// SetStatus handles enabling or disabling a test case.
func (h *TestCaseHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "case_id", "test case")
	if !ok {
		return
	}

	var req SetCaseStatusRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.caseStore.SetStatus(r.Context(), id, testcase.CaseStatus(req.Status)); err != nil {
		if errors.Is(err, testcase.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "test case not found")
			return
		}
		if errors.Is(err, testcase.ErrInvalidStatus) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to update test case status", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to update test case status")
		return
	}

	updated, err := h.caseStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to get updated test case", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get updated test case")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// ListVersions handles listing all snapshots of a test case, oldest first.
func (h *TestCaseHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "case_id", "test case")
	if !ok {
		return
	}

	versions, err := h.caseStore.ListVersions(r.Context(), id)
	if err != nil {
		if errors.Is(err, testcase.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "test case not found")
			return
		}
		h.logger.Error(r.Context(), "failed to list case versions", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list case versions")
		return
	}

	respondJSON(w, http.StatusOK, versions)
}

// GetVersion handles getting a single immutable snapshot of a test case.
func (h *TestCaseHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "case_id", "test case")
	if !ok {
		return
	}

	versionStr := mux.Vars(r)["version"]
	version, err := strconv.ParseUint(versionStr, 10, 32)
	if err != nil || version == 0 {
		respondError(w, http.StatusBadRequest, "invalid version: must be a positive integer")
		return
	}

	snapshot, err := h.caseStore.GetVersion(r.Context(), id, uint(version))
	if err != nil {
		if errors.Is(err, testcase.ErrVersionNotFound) {
			respondError(w, http.StatusNotFound, "test case version not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get case version", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": id.String(),
			"version":      version,
		})
		respondError(w, http.StatusInternalServerError, "failed to get case version")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
