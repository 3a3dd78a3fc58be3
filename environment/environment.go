package environment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEnvironmentNotFound    = errors.New("environment not found")
	ErrInvalidEnvironmentName = errors.New("environment name is required")
	ErrInvalidCreatedBy       = errors.New("created_by is required")
)

// Environment is a named target that test runs execute against, such as a
// staging deployment or a device pool.
type Environment struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	BaseURL     string    `json:"base_url"`
	Description string    `json:"description" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"default:true;index:idx_environments_active"`
	CreatedBy   uuid.UUID `json:"created_by" gorm:"type:char(36);not null;index:idx_environments_created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new environment.
func (e *Environment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Validate checks if the environment has valid required fields.
func (e *Environment) Validate() error {
	if e.Name == "" {
		return ErrInvalidEnvironmentName
	}
	if e.CreatedBy == uuid.Nil {
		return ErrInvalidCreatedBy
	}
	return nil
}
