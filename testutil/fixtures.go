package testutil

import (
	"testing"

	"gorm.io/gorm"
)

// CreateFixture inserts a row directly, bypassing store validation. Use
// it to stage data a test needs but is not itself exercising.
func CreateFixture(t *testing.T, db *gorm.DB, model interface{}) {
	t.Helper()

	if err := db.Create(model).Error; err != nil {
		t.Fatalf("failed to create fixture %T: %v", model, err)
	}
}

// CreateFixtures inserts several rows in order.
func CreateFixtures(t *testing.T, db *gorm.DB, models ...interface{}) {
	t.Helper()

	for _, model := range models {
		CreateFixture(t, db, model)
	}
}
