// Package testing provides shared test helpers: isolated store
// instances and account fixtures.
package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apetros/paperbroker/internal/database"
	_ "modernc.org/sqlite"
)

// NewTestDB creates an isolated temp-file store with the schema
// applied. The cleanup function closes the store and removes the file.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	dir, err := os.MkdirTemp("", "paperbroker_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	path := filepath.Join(dir, "brokerage.db")

	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileLedger,
		Name:    "brokerage_test",
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		t.Fatalf("Failed to create test store: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.RemoveAll(dir)
		t.Fatalf("Failed to migrate test store: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.RemoveAll(dir)
	}
}
