package db

import (
	"testing"

	"gorm.io/gorm"

	"github.com/swayamsankar/intern-app/internal/config"
)

// setupTestDB opens a migrated in-memory SQLite database for one test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	d, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = Close(d) })
	return d
}

func strPtr(s string) *string { return &s }
