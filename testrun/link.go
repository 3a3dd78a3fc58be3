package testrun

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrLinkNotFound    = errors.New("execution link not found")
	ErrInvalidLinkName = errors.New("link name is not set")
	ErrInvalidLinkURL  = errors.New("link url is not set")
)

// ExecutionLink is an external reference attached to a test execution,
// e.g. a bug report or a CI job for the failure being investigated.
type ExecutionLink struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	ExecutionID uuid.UUID `json:"execution_id" gorm:"type:char(36);index:idx_execution_links_execution"`
	Name        string    `json:"name" gorm:"type:varchar(255)"`
	URL         string    `json:"url" gorm:"type:varchar(2048)"`
	CreatedBy   uuid.UUID `json:"created_by" gorm:"type:char(36)"`
	CreatedAt   time.Time `json:"created_at"`
}

func (l *ExecutionLink) TableName() string {
	return "test_execution_links"
}

func (l *ExecutionLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (l *ExecutionLink) Validate() error {
	if l.ExecutionID == uuid.Nil {
		return ErrExecutionNotFound
	}
	if l.Name == "" {
		return ErrInvalidLinkName
	}
	if l.URL == "" {
		return ErrInvalidLinkURL
	}
	return nil
}
