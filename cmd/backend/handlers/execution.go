package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/internal/uuidutil"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/testcase"
	"github.com/caseline/caseline/testrun"
)

// ExecutionHandler handles test execution requests: results, notes,
// assignment, links, step notes and the transition ledger.
type ExecutionHandler struct {
	execStore     testrun.ExecutionStore
	historyStore  testrun.HistoryStore
	linkStore     testrun.LinkStore
	stepNoteStore testrun.StepNoteStore
	logger        logger.Logger
}

// NewExecutionHandler creates a new execution handler.
func NewExecutionHandler(
	execStore testrun.ExecutionStore,
	historyStore testrun.HistoryStore,
	linkStore testrun.LinkStore,
	stepNoteStore testrun.StepNoteStore,
	log logger.Logger,
) *ExecutionHandler {
	return &ExecutionHandler{
		execStore:     execStore,
		historyStore:  historyStore,
		linkStore:     linkStore,
		stepNoteStore: stepNoteStore,
		logger:        log,
	}
}

// SetExecutionStatusRequest represents a result recording request. Token
// must carry the token of the execution the client last read.
type SetExecutionStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
	Token   uint   `json:"token"`
}

// AppendExecutionNoteRequest represents a note append request.
type AppendExecutionNoteRequest struct {
	Note string `json:"note"`
}

// AssignExecutionRequest represents an assignee change request. A null or
// empty assignee_id clears the assignment.
type AssignExecutionRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// AddExecutionLinkRequest represents a link attachment request.
type AddExecutionLinkRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UpsertStepNoteRequest represents a step annotation request.
type UpsertStepNoteRequest struct {
	Notes string `json:"notes"`
}

// ListByRun handles listing a run's executions in plan order.
func (h *ExecutionHandler) ListByRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseUUIDOrRespond(w, r, "run_id", "test run")
	if !ok {
		return
	}

	execs, err := h.execStore.ListByRun(r.Context(), runID)
	if err != nil {
		if errors.Is(err, testrun.ErrRunNotFound) {
			respondError(w, http.StatusNotFound, "test run not found")
			return
		}
		h.logger.Error(r.Context(), "failed to list executions", map[string]interface{}{
			"error":       err.Error(),
			"test_run_id": runID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list executions")
		return
	}

	respondJSON(w, http.StatusOK, execs)
}

// ListByCase handles listing every execution of a case across all runs
// and case versions, oldest first.
func (h *ExecutionHandler) ListByCase(w http.ResponseWriter, r *http.Request) {
	caseID, ok := parseUUIDOrRespond(w, r, "case_id", "test case")
	if !ok {
		return
	}

	execs, err := h.execStore.ListByCase(r.Context(), caseID)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list executions by case", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": caseID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list executions")
		return
	}

	respondJSON(w, http.StatusOK, execs)
}

// CaseHistory handles listing the transition ledger of a case across all
// of its executions, oldest first.
func (h *ExecutionHandler) CaseHistory(w http.ResponseWriter, r *http.Request) {
	caseID, ok := parseUUIDOrRespond(w, r, "case_id", "test case")
	if !ok {
		return
	}

	records, err := h.historyStore.ListByCase(r.Context(), caseID)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list case history", map[string]interface{}{
			"error":        err.Error(),
			"test_case_id": caseID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list case history")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// GetByID handles getting a single execution by ID.
func (h *ExecutionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	exec, err := h.execStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, testrun.ErrExecutionNotFound) {
			respondError(w, http.StatusNotFound, "test execution not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get test execution", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to get test execution")
		return
	}

	respondJSON(w, http.StatusOK, exec)
}

// SetStatus handles recording a result. The response carries the new
// token; a stale token gets 409 and the client re-reads before retrying.
func (h *ExecutionHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	var req SetExecutionStatusRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exec, err := h.execStore.SetStatus(r.Context(), id, testrun.ExecutionStatus(req.Status), actorID, req.Comment, req.Token)
	if err != nil {
		if errors.Is(err, testrun.ErrExecutionNotFound) {
			respondError(w, http.StatusNotFound, "test execution not found")
			return
		}
		if errors.Is(err, testrun.ErrStaleExecution) {
			respondError(w, http.StatusConflict, "test execution was modified by someone else: refresh and retry")
			return
		}
		if errors.Is(err, authz.ErrDenied) {
			respondError(w, http.StatusForbidden, "not allowed to execute in this run")
			return
		}
		if errors.Is(err, testrun.ErrInvalidStatus) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to set execution status", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
			"actor_id":     actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to set execution status")
		return
	}

	respondJSON(w, http.StatusOK, exec)
}

// AppendNote handles adding commentary to an execution without changing
// its status.
func (h *ExecutionHandler) AppendNote(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	var req AppendExecutionNoteRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exec, err := h.execStore.AppendNote(r.Context(), id, actorID, req.Note)
	if err != nil {
		if errors.Is(err, testrun.ErrExecutionNotFound) {
			respondError(w, http.StatusNotFound, "test execution not found")
			return
		}
		if errors.Is(err, authz.ErrDenied) {
			respondError(w, http.StatusForbidden, "not allowed to execute in this run")
			return
		}
		if errors.Is(err, testrun.ErrInvalidNote) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to append execution note", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
			"actor_id":     actorID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to append execution note")
		return
	}

	respondJSON(w, http.StatusOK, exec)
}

// Assign handles setting or clearing an execution's assignee.
func (h *ExecutionHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	var req AssignExecutionRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var assigneeID *uuid.UUID
	if req.AssigneeID != nil {
		parsed, err := uuidutil.ParseOptional(*req.AssigneeID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid assignee_id: must be a valid UUID")
			return
		}
		assigneeID = parsed
	}

	exec, err := h.execStore.Assign(r.Context(), id, assigneeID)
	if err != nil {
		if errors.Is(err, testrun.ErrExecutionNotFound) {
			respondError(w, http.StatusNotFound, "test execution not found")
			return
		}
		h.logger.Error(r.Context(), "failed to assign test execution", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to assign test execution")
		return
	}

	respondJSON(w, http.StatusOK, exec)
}

// History handles listing an execution's transition ledger oldest first.
func (h *ExecutionHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	records, err := h.historyStore.ListByExecution(r.Context(), id)
	if err != nil {
		if errors.Is(err, testrun.ErrExecutionNotFound) {
			respondError(w, http.StatusNotFound, "test execution not found")
			return
		}
		h.logger.Error(r.Context(), "failed to list execution history", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list execution history")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// AddLink handles attaching a named URL to an execution. Re-adding the
// same name and url pair returns the existing link.
func (h *ExecutionHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	var req AddExecutionLinkRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.linkStore.AddLink(r.Context(), id, req.Name, req.URL, actorID)
	if err != nil {
		if errors.Is(err, testrun.ErrExecutionNotFound) {
			respondError(w, http.StatusNotFound, "test execution not found")
			return
		}
		if errors.Is(err, testrun.ErrInvalidLinkName) ||
			errors.Is(err, testrun.ErrInvalidLinkURL) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to add execution link", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to add execution link")
		return
	}

	respondJSON(w, http.StatusCreated, link)
}

// ListLinks handles listing an execution's links.
func (h *ExecutionHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	links, err := h.linkStore.ListByExecution(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list execution links", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list execution links")
		return
	}

	respondJSON(w, http.StatusOK, links)
}

// RemoveLink handles detaching a link from an execution.
func (h *ExecutionHandler) RemoveLink(w http.ResponseWriter, r *http.Request) {
	linkID, ok := parseUUIDOrRespond(w, r, "link_id", "execution link")
	if !ok {
		return
	}

	if err := h.linkStore.Remove(r.Context(), linkID); err != nil {
		if errors.Is(err, testrun.ErrLinkNotFound) {
			respondError(w, http.StatusNotFound, "execution link not found")
			return
		}
		h.logger.Error(r.Context(), "failed to remove execution link", map[string]interface{}{
			"error":   err.Error(),
			"link_id": linkID.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to remove execution link")
		return
	}

	respondSuccess(w, "execution link removed")
}

// ListStepNotes handles listing an execution's step notes in step order.
func (h *ExecutionHandler) ListStepNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	notes, err := h.stepNoteStore.ListByExecution(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list step notes", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list step notes")
		return
	}

	respondJSON(w, http.StatusOK, notes)
}

// UpsertStepNote handles annotating one step of the case version an
// execution pins. Re-noting a step replaces the text.
func (h *ExecutionHandler) UpsertStepNote(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDOrRespond(w, r, "execution_id", "test execution")
	if !ok {
		return
	}

	stepIndexStr := mux.Vars(r)["step_index"]
	stepIndex, err := strconv.Atoi(stepIndexStr)
	if err != nil || stepIndex < 0 {
		respondError(w, http.StatusBadRequest, "invalid step_index: must be a non-negative integer")
		return
	}

	var req UpsertStepNoteRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note := &testrun.StepNote{
		ExecutionID: id,
		StepIndex:   stepIndex,
		Notes:       req.Notes,
		NotedBy:     actorID,
	}

	if err := h.stepNoteStore.Upsert(r.Context(), note); err != nil {
		if errors.Is(err, testrun.ErrExecutionNotFound) {
			respondError(w, http.StatusNotFound, "test execution not found")
			return
		}
		if errors.Is(err, testcase.ErrVersionNotFound) {
			respondError(w, http.StatusNotFound, "pinned case version not found")
			return
		}
		if errors.Is(err, testrun.ErrStepIndexOutOfRange) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to upsert step note", map[string]interface{}{
			"error":        err.Error(),
			"execution_id": id.String(),
			"step_index":   stepIndex,
		})
		respondError(w, http.StatusInternalServerError, "failed to upsert step note")
		return
	}

	respondJSON(w, http.StatusOK, note)
}
