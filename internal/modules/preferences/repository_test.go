package preferences

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apetros/paperbroker/internal/domain"
	brokertest "github.com/apetros/paperbroker/internal/testing"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestGetReturnsDefaults(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 1000.0)

	prefs, err := repo.Get(userID)
	require.NoError(t, err)
	assert.True(t, prefs.DarkMode)
	assert.Equal(t, "1D", prefs.DefaultTimeframe)
	assert.Equal(t, "candlestick", prefs.DefaultChartType)
	assert.True(t, prefs.NotificationsEnabled)
}

func TestGetUnknownUser(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())

	_, err := repo.Get(9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyPartialUpdate(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 1000.0)

	err := repo.Apply(userID, Update{
		DarkMode:         boolPtr(false),
		DefaultTimeframe: strPtr("1W"),
	})
	require.NoError(t, err)

	prefs, err := repo.Get(userID)
	require.NoError(t, err)
	assert.False(t, prefs.DarkMode)
	assert.Equal(t, "1W", prefs.DefaultTimeframe)
	// Untouched fields keep their previous values
	assert.Equal(t, "candlestick", prefs.DefaultChartType)
	assert.True(t, prefs.NotificationsEnabled)
}

func TestApplyEmptyUpdateIsNoop(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 1000.0)

	require.NoError(t, repo.Apply(userID, Update{}))

	prefs, err := repo.Get(userID)
	require.NoError(t, err)
	assert.True(t, prefs.DarkMode)
}

func TestApplyUnknownUser(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())

	err := repo.Apply(9999, Update{DarkMode: boolPtr(false)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateFields(t *testing.T) {
	update := Update{
		DarkMode:             boolPtr(true),
		NotificationsEnabled: boolPtr(false),
	}
	assert.Equal(t, []string{"dark_mode", "notifications_enabled"}, update.Fields())
	assert.False(t, update.IsEmpty())
	assert.True(t, Update{}.IsEmpty())
}
