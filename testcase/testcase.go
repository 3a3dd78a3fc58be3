package testcase

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrCaseNotFound is returned when a test case is not found.
	ErrCaseNotFound = errors.New("test case not found")

	// ErrVersionNotFound is returned when a test case version is not found.
	ErrVersionNotFound = errors.New("test case version not found")

	// ErrInvalidSummary is returned when a test case summary is empty.
	ErrInvalidSummary = errors.New("test case summary is required")

	// ErrInvalidAuthor is returned when author_id is not set.
	ErrInvalidAuthor = errors.New("author_id is required")

	// ErrInvalidActor is returned when an operation requires an actor and none is given.
	ErrInvalidActor = errors.New("actor_id is required")

	// ErrInvalidStatus is returned when a test case status is not recognised.
	ErrInvalidStatus = errors.New("invalid test case status")

	// ErrInvalidSteps is returned when a step is missing its action.
	ErrInvalidSteps = errors.New("every step requires an action")
)

// CaseStatus represents the lifecycle state of a test case.
type CaseStatus string

const (
	// CaseStatusActive marks a case as available for new runs.
	CaseStatusActive CaseStatus = "active"

	// CaseStatusDisabled marks a case as excluded from new runs. Existing
	// executions keep their pinned snapshot.
	CaseStatusDisabled CaseStatus = "disabled"
)

// IsValid checks if the status is a recognised case status.
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusActive, CaseStatusDisabled:
		return true
	}
	return false
}

// Step is a single instruction within a test case.
type Step struct {
	Action   string `json:"action"`
	Expected string `json:"expected,omitempty"`
}

// Steps represents the ordered steps of a test case, stored as JSON.
type Steps []Step

// Value implements the driver.Valuer interface for database storage.
func (s Steps) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for database retrieval.
func (s *Steps) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return errors.New("failed to scan Steps: unsupported source type")
}

// TestCase represents the current content of a test case. Every content
// revision is mirrored into the CaseVersion arena; executions pin a
// (case, version) pair and never read this row for historical results.
type TestCase struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Summary   string     `json:"summary" gorm:"not null"`
	Steps     Steps      `json:"steps" gorm:"type:json"`
	Notes     string     `json:"notes" gorm:"type:text"`
	Status    CaseStatus `json:"status" gorm:"type:varchar(16);not null;default:'active';index:idx_test_cases_status"`
	Version   uint       `json:"version" gorm:"not null;default:1"`
	AuthorID  uuid.UUID  `json:"author_id" gorm:"type:char(36);not null;index:idx_test_cases_author"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new test case
func (tc *TestCase) BeforeCreate(tx *gorm.DB) error {
	if tc.ID == uuid.Nil {
		tc.ID = uuid.New()
	}
	return nil
}

// Validate checks if the test case has valid required fields.
func (tc *TestCase) Validate() error {
	if tc.Summary == "" {
		return ErrInvalidSummary
	}
	if tc.AuthorID == uuid.Nil {
		return ErrInvalidAuthor
	}
	if !tc.Status.IsValid() {
		return ErrInvalidStatus
	}
	for _, step := range tc.Steps {
		if step.Action == "" {
			return ErrInvalidSteps
		}
	}
	return nil
}

// Snapshot returns the CaseVersion row mirroring the case's current
// content, attributed to the given actor.
func (tc *TestCase) Snapshot(actorID uuid.UUID) *CaseVersion {
	return &CaseVersion{
		CaseID:    tc.ID,
		Version:   tc.Version,
		Summary:   tc.Summary,
		Steps:     tc.Steps,
		Notes:     tc.Notes,
		CreatedBy: actorID,
	}
}
