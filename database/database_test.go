package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{
		Host:     "db.internal",
		Port:     3306,
		User:     "caseline",
		Password: "s3cret",
		Database: "caseline",
	}

	assert.Equal(t,
		"caseline:s3cret@tcp(db.internal:3306)/caseline?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.dsn())
}
