package testplan

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrPlanNotFound is returned when a test plan is not found.
	ErrPlanNotFound = errors.New("test plan not found")

	// ErrInvalidPlanName is returned when a test plan name is empty.
	ErrInvalidPlanName = errors.New("test plan name is required")

	// ErrInvalidProduct is returned when a test plan has no product.
	ErrInvalidProduct = errors.New("product is required")

	// ErrInvalidAuthor is returned when author_id is not set.
	ErrInvalidAuthor = errors.New("author_id is required")

	// ErrDuplicateCase is returned when a case is added to a plan twice.
	ErrDuplicateCase = errors.New("test case is already in the plan")

	// ErrCaseNotInPlan is returned when a membership operation references a
	// case the plan does not contain.
	ErrCaseNotInPlan = errors.New("test case is not in the plan")
)

// TestPlan groups test cases for a product. Membership lives in PlanCase
// rows; plans never own case content. Cloned plans point at their source
// through ParentID.
type TestPlan struct {
	ID             uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name           string     `json:"name" gorm:"not null"`
	Product        string     `json:"product" gorm:"not null;index:idx_test_plans_product"`
	ProductVersion string     `json:"product_version"`
	ParentID       *uuid.UUID `json:"parent_id,omitempty" gorm:"type:char(36);index:idx_test_plans_parent"`
	AuthorID       uuid.UUID  `json:"author_id" gorm:"type:char(36);not null;index:idx_test_plans_author"`
	IsActive       bool       `json:"is_active" gorm:"default:true;index:idx_test_plans_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating a new test plan
func (tp *TestPlan) BeforeCreate(tx *gorm.DB) error {
	if tp.ID == uuid.Nil {
		tp.ID = uuid.New()
	}
	return nil
}

// Validate checks if the test plan has valid required fields.
func (tp *TestPlan) Validate() error {
	if tp.Name == "" {
		return ErrInvalidPlanName
	}
	if tp.Product == "" {
		return ErrInvalidProduct
	}
	if tp.AuthorID == uuid.Nil {
		return ErrInvalidAuthor
	}
	return nil
}
