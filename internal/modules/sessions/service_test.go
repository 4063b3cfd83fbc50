package sessions

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apetros/paperbroker/internal/database"
	"github.com/apetros/paperbroker/internal/domain"
	"github.com/apetros/paperbroker/internal/events"
	"github.com/apetros/paperbroker/internal/modules/accounts"
	"github.com/apetros/paperbroker/internal/modules/balances"
	"github.com/apetros/paperbroker/internal/modules/preferences"
	brokertest "github.com/apetros/paperbroker/internal/testing"
)

func newTestService(t *testing.T) (*Service, *database.DB, func()) {
	t.Helper()

	db, cleanup := brokertest.NewTestDB(t)
	log := zerolog.Nop()
	eventManager := events.NewManager(log)

	accountsService := accounts.NewService(
		db,
		accounts.NewRepository(db.Conn(), log),
		balances.NewRepository(db.Conn(), log),
		preferences.NewRepository(db.Conn(), log),
		eventManager,
		100000.0,
		log,
	)

	_, err := accountsService.Register(accounts.RegisterRequest{
		Username: "alice",
		Password: "hunter22",
	})
	require.NoError(t, err)

	service := NewService(
		db,
		NewRepository(db.Conn(), log),
		accountsService,
		eventManager,
		24*time.Hour,
		log,
	)

	return service, db, cleanup
}

func TestLoginIssuesToken(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	result, err := service.Login("alice", "hunter22")
	require.NoError(t, err)
	assert.Len(t, result.Token, 64)
	assert.Equal(t, "alice", result.Username)
	assert.True(t, result.ExpiresAt.After(time.Now().UTC().Add(23*time.Hour)))

	userID, err := service.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.UserID, userID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.Login("alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = service.Login("nobody", "hunter22")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestValidateRejectsUnknownAndEmptyTokens(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.Validate("")
	assert.ErrorIs(t, err, domain.ErrSessionExpiredOrInvalid)

	_, err = service.Validate("deadbeef")
	assert.ErrorIs(t, err, domain.ErrSessionExpiredOrInvalid)
}

func TestValidateRejectsDeactivatedAccount(t *testing.T) {
	service, db, cleanup := newTestService(t)
	defer cleanup()

	result, err := service.Login("alice", "hunter22")
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE users SET is_active = 0 WHERE id = ?`, result.UserID)
	require.NoError(t, err)

	// A live token stops authorizing the moment the account is disabled
	_, err = service.Validate(result.Token)
	assert.ErrorIs(t, err, domain.ErrSessionExpiredOrInvalid)

	_, err = db.Exec(`UPDATE users SET is_active = 1 WHERE id = ?`, result.UserID)
	require.NoError(t, err)

	userID, err := service.Validate(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.UserID, userID)
}

func TestLoginRecordsLastLogin(t *testing.T) {
	service, db, cleanup := newTestService(t)
	defer cleanup()

	var before sql.NullInt64
	require.NoError(t, db.QueryRow(
		`SELECT last_login FROM users WHERE username = 'alice'`).Scan(&before))
	assert.False(t, before.Valid)

	result, err := service.Login("alice", "hunter22")
	require.NoError(t, err)

	var after sql.NullInt64
	require.NoError(t, db.QueryRow(
		`SELECT last_login FROM users WHERE id = ?`, result.UserID).Scan(&after))
	require.True(t, after.Valid)
	assert.InDelta(t, time.Now().UTC().Unix(), after.Int64, 5)
}

func TestValidateRejectsExpiredSession(t *testing.T) {
	service, db, cleanup := newTestService(t)
	defer cleanup()

	result, err := service.Login("alice", "hunter22")
	require.NoError(t, err)

	// Age the session past its expiry
	_, err = db.Exec(`UPDATE sessions SET expires_at = ? WHERE token = ?`,
		time.Now().UTC().Add(-time.Minute).Unix(), result.Token)
	require.NoError(t, err)

	_, err = service.Validate(result.Token)
	assert.ErrorIs(t, err, domain.ErrSessionExpiredOrInvalid)
}

func TestLogoutIsIdempotent(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	result, err := service.Login("alice", "hunter22")
	require.NoError(t, err)

	require.NoError(t, service.Logout(result.Token))
	require.NoError(t, service.Logout(result.Token))

	_, err = service.Validate(result.Token)
	assert.ErrorIs(t, err, domain.ErrSessionExpiredOrInvalid)
}

func TestRevokeAllDropsEverySession(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	first, err := service.Login("alice", "hunter22")
	require.NoError(t, err)
	second, err := service.Login("alice", "hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	require.NoError(t, service.RevokeAll(first.UserID))

	_, err = service.Validate(first.Token)
	assert.ErrorIs(t, err, domain.ErrSessionExpiredOrInvalid)
	_, err = service.Validate(second.Token)
	assert.ErrorIs(t, err, domain.ErrSessionExpiredOrInvalid)
}

func TestSweepExpiredRemovesOnlyDeadSessions(t *testing.T) {
	service, db, cleanup := newTestService(t)
	defer cleanup()

	live, err := service.Login("alice", "hunter22")
	require.NoError(t, err)
	dead, err := service.Login("alice", "hunter22")
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE sessions SET expires_at = ? WHERE token = ?`,
		time.Now().UTC().Add(-time.Hour).Unix(), dead.Token)
	require.NoError(t, err)

	removed, err := service.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = service.Validate(live.Token)
	assert.NoError(t, err)
}
