package testing

import (
	"testing"
	"time"

	"github.com/apetros/paperbroker/internal/database"
)

// SeedUser inserts a user row with a cash balance and default
// preferences, bypassing the registration flow. The password hash is a
// throwaway; use the accounts service in tests that exercise login.
func SeedUser(t *testing.T, db *database.DB, username string, cash float64) int64 {
	t.Helper()

	now := time.Now().Unix()
	result, err := db.Exec(`
		INSERT INTO users (username, password_hash, is_active, created_at)
		VALUES (?, 'x', 1, ?)
	`, username, now)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	userID, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get seeded user id: %v", err)
	}

	if _, err := db.Exec(
		`INSERT INTO balances (user_id, cash_balance, last_updated) VALUES (?, ?, ?)`,
		userID, cash, now); err != nil {
		t.Fatalf("Failed to seed balance: %v", err)
	}

	if _, err := db.Exec(
		`INSERT INTO preferences (user_id) VALUES (?)`, userID); err != nil {
		t.Fatalf("Failed to seed preferences: %v", err)
	}

	return userID
}
