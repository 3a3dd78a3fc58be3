package testplan

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTestPlan_Validate(t *testing.T) {
	authorID := uuid.New()

	tests := []struct {
		name    string
		plan    TestPlan
		wantErr error
	}{
		{
			name: "valid plan",
			plan: TestPlan{
				Name:     "Release regression",
				Product:  "webshop",
				AuthorID: authorID,
			},
			wantErr: nil,
		},
		{
			name: "valid plan with product version",
			plan: TestPlan{
				Name:           "Release regression",
				Product:        "webshop",
				ProductVersion: "2.4",
				AuthorID:       authorID,
			},
			wantErr: nil,
		},
		{
			name: "missing name",
			plan: TestPlan{
				Product:  "webshop",
				AuthorID: authorID,
			},
			wantErr: ErrInvalidPlanName,
		},
		{
			name: "missing product",
			plan: TestPlan{
				Name:     "Release regression",
				AuthorID: authorID,
			},
			wantErr: ErrInvalidProduct,
		},
		{
			name: "missing author",
			plan: TestPlan{
				Name:    "Release regression",
				Product: "webshop",
			},
			wantErr: ErrInvalidAuthor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
