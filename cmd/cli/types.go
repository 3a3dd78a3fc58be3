package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/caseline/caseline/testrun"
)

// PaginatedResponse matches handlers.PaginatedResponse.
type PaginatedResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse matches handlers.ErrorResponse.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse matches handlers.SuccessResponse.
type SuccessResponse struct {
	Message string `json:"message"`
}

// StepJSON is used for steps in requests and responses.
type StepJSON struct {
	Action   string `json:"action"`
	Expected string `json:"expected,omitempty"`
}

// CreateTestCaseRequest matches handlers.CreateTestCaseRequest.
type CreateTestCaseRequest struct {
	Summary string     `json:"summary"`
	Steps   []StepJSON `json:"steps,omitempty"`
	Notes   string     `json:"notes,omitempty"`
}

// ReviseTestCaseRequest matches handlers.ReviseTestCaseRequest.
type ReviseTestCaseRequest struct {
	Summary *string     `json:"summary,omitempty"`
	Steps   *[]StepJSON `json:"steps,omitempty"`
	Notes   *string     `json:"notes,omitempty"`
}

// SetCaseStatusRequest matches handlers.SetCaseStatusRequest.
type SetCaseStatusRequest struct {
	Status string `json:"status"`
}

// CreateTestPlanRequest matches handlers.CreateTestPlanRequest.
type CreateTestPlanRequest struct {
	Name           string `json:"name"`
	Product        string `json:"product"`
	ProductVersion string `json:"product_version,omitempty"`
}

// UpdateTestPlanRequest matches handlers.UpdateTestPlanRequest.
type UpdateTestPlanRequest struct {
	Name           *string `json:"name,omitempty"`
	Product        *string `json:"product,omitempty"`
	ProductVersion *string `json:"product_version,omitempty"`
}

// CloneTestPlanRequest matches handlers.CloneTestPlanRequest.
type CloneTestPlanRequest struct {
	Name string `json:"name"`
}

// AddPlanCaseRequest matches handlers.AddPlanCaseRequest.
type AddPlanCaseRequest struct {
	CaseID  string `json:"case_id"`
	SortKey int    `json:"sort_key,omitempty"`
}

// CreateEnvironmentRequest matches handlers.CreateEnvironmentRequest.
type CreateEnvironmentRequest struct {
	Name        string `json:"name"`
	BaseURL     string `json:"base_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateEnvironmentRequest matches handlers.UpdateEnvironmentRequest.
type UpdateEnvironmentRequest struct {
	Name        *string `json:"name,omitempty"`
	BaseURL     *string `json:"base_url,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CreateTestRunRequest matches handlers.CreateTestRunRequest.
type CreateTestRunRequest struct {
	PlanID        string   `json:"plan_id"`
	CaseIDs       []string `json:"case_ids"`
	EnvironmentID string   `json:"environment_id,omitempty"`
	Build         string   `json:"build,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	AssigneeID    string   `json:"assignee_id,omitempty"`
}

// UpdateTestRunRequest matches handlers.UpdateTestRunRequest.
type UpdateTestRunRequest struct {
	Build         *string `json:"build,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	EnvironmentID *string `json:"environment_id,omitempty"`
}

// SetExecutionStatusRequest matches handlers.SetExecutionStatusRequest.
type SetExecutionStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
	Token   uint   `json:"token"`
}

// AppendExecutionNoteRequest matches handlers.AppendExecutionNoteRequest.
type AppendExecutionNoteRequest struct {
	Note string `json:"note"`
}

// AssignExecutionRequest matches handlers.AssignExecutionRequest.
type AssignExecutionRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// AddExecutionLinkRequest matches handlers.AddExecutionLinkRequest.
type AddExecutionLinkRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UpsertStepNoteRequest matches handlers.UpsertStepNoteRequest.
type UpsertStepNoteRequest struct {
	Notes string `json:"notes"`
}

// TestCaseResponse is used for deserializing test case responses.
type TestCaseResponse struct {
	ID        uuid.UUID  `json:"id"`
	Summary   string     `json:"summary"`
	Steps     []StepJSON `json:"steps"`
	Notes     string     `json:"notes"`
	Status    string     `json:"status"`
	Version   uint       `json:"version"`
	AuthorID  uuid.UUID  `json:"author_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CaseVersionResponse is used for deserializing case snapshot responses.
type CaseVersionResponse struct {
	ID        uuid.UUID  `json:"id"`
	CaseID    uuid.UUID  `json:"case_id"`
	Version   uint       `json:"version"`
	Summary   string     `json:"summary"`
	Steps     []StepJSON `json:"steps"`
	Notes     string     `json:"notes"`
	CreatedBy uuid.UUID  `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// TestPlanResponse is used for deserializing test plan responses.
type TestPlanResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Product        string     `json:"product"`
	ProductVersion string     `json:"product_version"`
	ParentID       *uuid.UUID `json:"parent_id,omitempty"`
	AuthorID       uuid.UUID  `json:"author_id"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PlanCaseResponse is used for deserializing plan membership responses.
type PlanCaseResponse struct {
	ID        uuid.UUID `json:"id"`
	PlanID    uuid.UUID `json:"plan_id"`
	CaseID    uuid.UUID `json:"case_id"`
	SortKey   int       `json:"sort_key"`
	AddedBy   uuid.UUID `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// EnvironmentResponse is used for deserializing environment responses.
type EnvironmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	BaseURL     string    `json:"base_url"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TestRunResponse is used for deserializing test run responses.
type TestRunResponse struct {
	ID            uuid.UUID         `json:"id"`
	PlanID        uuid.UUID         `json:"plan_id"`
	EnvironmentID *uuid.UUID        `json:"environment_id,omitempty"`
	Build         string            `json:"build"`
	Summary       string            `json:"summary"`
	ManagerID     uuid.UUID         `json:"manager_id"`
	Status        testrun.RunStatus `json:"status"`
	FinishedAt    *time.Time        `json:"finished_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ExecutionResponse is used for deserializing execution responses.
type ExecutionResponse struct {
	ID          uuid.UUID               `json:"id"`
	RunID       uuid.UUID               `json:"run_id"`
	CaseID      uuid.UUID               `json:"case_id"`
	CaseVersion uint                    `json:"case_version"`
	SortKey     int                     `json:"sort_key"`
	Status      testrun.ExecutionStatus `json:"status"`
	AssigneeID  *uuid.UUID              `json:"assignee_id,omitempty"`
	TestedBy    *uuid.UUID              `json:"tested_by,omitempty"`
	Token       uint                    `json:"token"`
	Notes       string                  `json:"notes"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// TransitionResponse is used for deserializing ledger entries.
type TransitionResponse struct {
	ID          uuid.UUID                `json:"id"`
	ExecutionID uuid.UUID                `json:"execution_id"`
	RunID       uuid.UUID                `json:"run_id"`
	CaseID      uuid.UUID                `json:"case_id"`
	FromStatus  *testrun.ExecutionStatus `json:"from_status,omitempty"`
	ToStatus    testrun.ExecutionStatus  `json:"to_status"`
	ActorID     uuid.UUID                `json:"actor_id"`
	Comment     string                   `json:"comment"`
	CreatedAt   time.Time                `json:"created_at"`
}

// LinkResponse is used for deserializing execution link responses.
type LinkResponse struct {
	ID          uuid.UUID `json:"id"`
	ExecutionID uuid.UUID `json:"execution_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// AttachmentResponse is used for deserializing attachment responses.
type AttachmentResponse struct {
	ID          uuid.UUID `json:"id"`
	ExecutionID uuid.UUID `json:"execution_id"`
	Kind        string    `json:"kind"`
	Path        string    `json:"path"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type,omitempty"`
	Checksum    string    `json:"checksum,omitempty"`
	Description string    `json:"description,omitempty"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// AttachmentURLResponse matches handlers.AttachmentURLResponse.
type AttachmentURLResponse struct {
	URL string `json:"url"`
}

// StepNoteResponse is used for deserializing step note responses.
type StepNoteResponse struct {
	ID          uuid.UUID `json:"id"`
	ExecutionID uuid.UUID `json:"execution_id"`
	StepIndex   int       `json:"step_index"`
	Notes       string    `json:"notes"`
	NotedBy     uuid.UUID `json:"noted_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RunSummaryResponse is used for deserializing run summary responses.
type RunSummaryResponse struct {
	Total           int     `json:"total"`
	Idle            int     `json:"idle"`
	Running         int     `json:"running"`
	Passed          int     `json:"passed"`
	Failed          int     `json:"failed"`
	Errored         int     `json:"errored"`
	Blocked         int     `json:"blocked"`
	Waived          int     `json:"waived"`
	Completed       int     `json:"completed"`
	PercentComplete float64 `json:"percent_complete"`
	PassRate        float64 `json:"pass_rate"`
}

// MatrixRowResponse is one case's statuses across a plan's runs.
type MatrixRowResponse struct {
	CaseID   uuid.UUID                 `json:"case_id"`
	Statuses []testrun.ExecutionStatus `json:"statuses"`
}

// StatusMatrixResponse is used for deserializing plan matrix responses.
type StatusMatrixResponse struct {
	PlanID uuid.UUID           `json:"plan_id"`
	RunIDs []uuid.UUID         `json:"run_ids"`
	Rows   []MatrixRowResponse `json:"rows"`
}

// CaseHealthResponse is used for deserializing plan health responses.
type CaseHealthResponse struct {
	CaseID  uuid.UUID `json:"case_id"`
	Total   int       `json:"total"`
	Passed  int       `json:"passed"`
	Failed  int       `json:"failed"`
	Errored int       `json:"errored"`
}
