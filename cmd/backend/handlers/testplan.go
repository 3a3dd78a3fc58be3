package handlers

import (
	"errors"
	"net/http"

	"github.com/caseline/caseline/internal/uuidutil"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
	"github.com/caseline/caseline/testplan"
)

// TestPlanHandler handles test plan requests.
type TestPlanHandler struct {
	planStore testplan.Store
	logger    logger.Logger
}

// NewTestPlanHandler creates a new test plan handler.
func NewTestPlanHandler(planStore testplan.Store, log logger.Logger) *TestPlanHandler {
	return &TestPlanHandler{
		planStore: planStore,
		logger:    log,
	}
}

// CreateTestPlanRequest represents a test plan creation request.
type CreateTestPlanRequest struct {
	Name           string `json:"name"`
	Product        string `json:"product"`
	ProductVersion string `json:"product_version,omitempty"`
}

// UpdateTestPlanRequest represents a test plan update request.
type UpdateTestPlanRequest struct {
	Name           *string `json:"name,omitempty"`
	Product        *string `json:"product,omitempty"`
	ProductVersion *string `json:"product_version,omitempty"`
}

// CloneTestPlanRequest represents a plan clone request.
type CloneTestPlanRequest struct {
	Name string `json:"name"`
}

// AddPlanCaseRequest represents a request to include a case in a plan.
type AddPlanCaseRequest struct {
	CaseID  string `json:"case_id"`
	SortKey int    `json:"sort_key,omitempty"`
}

// Create handles creating a new test plan.
func (h *TestPlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateTestPlanRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	plan := &testplan.TestPlan{
		Name:           req.Name,
		Product:        req.Product,
		ProductVersion: req.ProductVersion,
		AuthorID:       actorID,
		IsActive:       true,
	}

	if err := h.planStore.Create(r.Context(), plan); err != nil {
		if errors.Is(err, testplan.ErrInvalidPlanName) ||
			errors.Is(err, testplan.ErrInvalidProduct) ||
			errors.Is(err, testplan.ErrInvalidAuthor) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to create test plan", map[string]interface{}{
			"error":    err.Error(),
			"actor_id": actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create test plan")
		return
	}

	respondJSON(w, http.StatusCreated, plan)
}

// List handles listing a product's plans with pagination.
func (h *TestPlanHandler) List(w http.ResponseWriter, r *http.Request) {
	product := r.URL.Query().Get("product")
	if product == "" {
		respondError(w, http.StatusBadRequest, "product query parameter is required")
		return
	}

	limit, offset := parsePagination(r)

	plans, err := h.planStore.ListByProduct(r.Context(), product, limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list test plans", map[string]interface{}{
			"error":   err.Error(),
			"product": product,
		})
		respondError(w, http.StatusInternalServerError, "failed to list test plans")
		return
	}

	total, err := h.planStore.CountByProduct(r.Context(), product)
	if err != nil {
		h.logger.Error(r.Context(), "failed to count test plans", map[string]interface{}{
			"error":   err.Error(),
			"product": product,
		})
		respondError(w, http.StatusInternalServerError, "failed to list test plans")
		return
	}

	respondJSON(w, http.StatusOK, NewPaginatedResponse(plans, total, limit, offset))
}

// GetByID handles getting a single test plan by ID.
func (h *TestPlanHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	plan, err := h.planStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get test plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// Update handles updating a test plan.
func (h *TestPlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	var req UpdateTestPlanRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var setters []testplan.UpdateSetter
	if req.Name != nil {
		setters = append(setters, testplan.SetName(*req.Name))
	}
	if req.Product != nil {
		setters = append(setters, testplan.SetProduct(*req.Product))
	}
	if req.ProductVersion != nil {
		setters = append(setters, testplan.SetProductVersion(*req.ProductVersion))
	}

	if len(setters) == 0 {
		respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.planStore.Update(r.Context(), id, setters...); err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		if errors.Is(err, testplan.ErrInvalidPlanName) ||
			errors.Is(err, testplan.ErrInvalidProduct) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to update test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to update test plan")
		return
	}

	updated, err := h.planStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to get updated test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get updated test plan")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// Delete handles soft deleting a test plan. Runs created from the plan
// keep working.
func (h *TestPlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	if err := h.planStore.Delete(r.Context(), id); err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		h.logger.Error(r.Context(), "failed to delete test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to delete test plan")
		return
	}

	respondSuccess(w, "test plan deleted successfully")
}

// Clone handles creating a child plan with the same product and cases.
func (h *TestPlanHandler) Clone(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	var req CloneTestPlanRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	child, err := h.planStore.Clone(r.Context(), id, req.Name, actorID)
	if err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		if errors.Is(err, testplan.ErrInvalidPlanName) ||
			errors.Is(err, testplan.ErrInvalidAuthor) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to clone test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": id.String(),
			"actor_id":     actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to clone test plan")
		return
	}

	respondJSON(w, http.StatusCreated, child)
}

// ListChildren handles listing the active plans cloned from a plan.
func (h *TestPlanHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	children, err := h.planStore.ListChildren(r.Context(), id)
	if err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		h.logger.Error(r.Context(), "failed to list plan children", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list plan children")
		return
	}

	respondJSON(w, http.StatusOK, children)
}

// AddCase handles including a case in a plan.
func (h *TestPlanHandler) AddCase(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	planID, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	var req AddPlanCaseRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caseID, err := uuidutil.Parse(req.CaseID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid case_id: must be a valid UUID")
		return
	}

	if err := h.planStore.AddCase(r.Context(), planID, caseID, actorID, req.SortKey); err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		if errors.Is(err, testcase.ErrCaseNotFound) {
			respondError(w, http.StatusNotFound, "test case not found")
			return
		}
		if errors.Is(err, testplan.ErrDuplicateCase) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to add case to test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
			"test_case_id": caseID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to add case to test plan")
		return
	}

	respondSuccess(w, "case added to test plan")
}

// ListCases handles listing a plan's case memberships in plan order.
func (h *TestPlanHandler) ListCases(w http.ResponseWriter, r *http.Request) {
	planID, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	memberships, err := h.planStore.ListCases(r.Context(), planID)
	if err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		h.logger.Error(r.Context(), "failed to list plan cases", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list plan cases")
		return
	}

	respondJSON(w, http.StatusOK, memberships)
}

// RemoveCase handles dropping a case from a plan. The case itself is
// untouched and existing runs keep their executions.
func (h *TestPlanHandler) RemoveCase(w http.ResponseWriter, r *http.Request) {
	planID, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	caseID, ok := parseUUIDOrRespond(w, r, "case_id", "test case")
	if !ok {
		return
	}

	if err := h.planStore.RemoveCase(r.Context(), planID, caseID); err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		if errors.Is(err, testplan.ErrCaseNotInPlan) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to remove case from test plan", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
			"test_case_id": caseID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to remove case from test plan")
		return
	}

	respondSuccess(w, "case removed from test plan")
}
