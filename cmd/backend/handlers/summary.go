package handlers

import (
	"errors"
	"net/http"

	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/summary"
	"github.com/caseline/caseline/testplan"
	"github.com/caseline/caseline/testrun"
)

// SummaryHandler serves derived reporting: run summaries, plan matrices
// and per-case health. Everything is computed from executions on read;
// nothing here is stored.
type SummaryHandler struct {
	engine *summary.Engine
	logger logger.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(engine *summary.Engine, log logger.Logger) *SummaryHandler {
	return &SummaryHandler{
		engine: engine,
		logger: log,
	}
}

// RunSummary handles reporting one run's aggregate status counts.
func (h *SummaryHandler) RunSummary(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseUUIDOrRespond(w, r, "run_id", "test run")
	if !ok {
		return
	}

	result, err := h.engine.Summarize(r.Context(), runID)
	if err != nil {
		if errors.Is(err, testrun.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "test run not found")
			return
		}
		h.logger.Error(r.Context(), "failed to summarize test run", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": runID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to summarize test run")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// PlanMatrix handles reporting the case-by-run status grid for a plan.
func (h *SummaryHandler) PlanMatrix(w http.ResponseWriter, r *http.Request) {
	planID, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	matrix, err := h.engine.StatusMatrix(r.Context(), planID)
	if err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		h.logger.Error(r.Context(), "failed to build status matrix", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to build status matrix")
		return
	}

	respondJSON(w, http.StatusOK, matrix)
}

// PlanHealth handles reporting per-case records across a plan's runs,
// worst cases first.
func (h *SummaryHandler) PlanHealth(w http.ResponseWriter, r *http.Request) {
	planID, ok := parseUUIDOrRespond(w, r, "plan_id", "test plan")
	if !ok {
		return
	}

	health, err := h.engine.CaseHealth(r.Context(), planID)
	if err != nil {
		if errors.Is(err, testplan.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "test plan not found")
			return
		}
		h.logger.Error(r.Context(), "failed to build case health report", map[string]interface{}{
			"error":        err.Error(),
			"test_plan_id": planID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to build case health report")
		return
	}

	respondJSON(w, http.StatusOK, health)
}
