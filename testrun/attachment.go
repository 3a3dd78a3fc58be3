package testrun

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrAttachmentNotFound is returned when an attachment is not found.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrInvalidAttachmentKind is returned when the attachment kind is invalid.
	ErrInvalidAttachmentKind = errors.New("invalid attachment kind")

	// ErrInvalidAttachmentPath is returned when path is empty.
	ErrInvalidAttachmentPath = errors.New("path is required")

	// ErrInvalidFileName is returned when file_name is empty.
	ErrInvalidFileName = errors.New("file_name is required")
)

// AttachmentKind represents the kind of evidence attached to an execution.
type AttachmentKind string

const (
	AttachmentKindImage    AttachmentKind = "image"
	AttachmentKindVideo    AttachmentKind = "video"
	AttachmentKindLog      AttachmentKind = "log"
	AttachmentKindDocument AttachmentKind = "document"
)

// IsValid checks if the attachment kind is valid.
func (k AttachmentKind) IsValid() bool {
	switch k {
	case AttachmentKindImage, AttachmentKindVideo, AttachmentKindLog, AttachmentKindDocument:
		return true
	default:
		return false
	}
}

// ExecutionAttachment is a stored piece of evidence for a test execution:
// a screenshot, recording, log dump or document captured while testing.
// Path points into blob storage; the row only carries metadata.
type ExecutionAttachment struct {
	ID          uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	ExecutionID uuid.UUID      `json:"execution_id" gorm:"type:char(36);not null;index:idx_execution_attachments_execution"`
	Kind        AttachmentKind `json:"kind" gorm:"type:varchar(20);not null;index:idx_execution_attachments_kind"`
	Path        string         `json:"path" gorm:"type:varchar(512);not null"`
	FileName    string         `json:"file_name" gorm:"type:varchar(255);not null"`
	FileSize    int64          `json:"file_size" gorm:"not null"`
	MimeType    string         `json:"mime_type,omitempty" gorm:"type:varchar(128)"`
	Checksum    string         `json:"checksum,omitempty" gorm:"type:char(64)"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	UploadedBy  uuid.UUID      `json:"uploaded_by" gorm:"type:char(36)"`
	UploadedAt  time.Time      `json:"uploaded_at" gorm:"autoCreateTime"`
}

func (a *ExecutionAttachment) TableName() string {
	return "test_execution_attachments"
}

// BeforeCreate hook to generate UUID before creating a new attachment
func (a *ExecutionAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Validate checks if the attachment has valid required fields.
func (a *ExecutionAttachment) Validate() error {
	if a.ExecutionID == uuid.Nil {
		return ErrExecutionNotFound
	}
	if !a.Kind.IsValid() {
		return ErrInvalidAttachmentKind
	}
	if a.Path == "" {
		return ErrInvalidAttachmentPath
	}
	if a.FileName == "" {
		return ErrInvalidFileName
	}
	return nil
}
