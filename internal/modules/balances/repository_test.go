package balances

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apetros/paperbroker/internal/database"
	"github.com/apetros/paperbroker/internal/domain"
	brokertest "github.com/apetros/paperbroker/internal/testing"
)

func TestGetReturnsSeededBalance(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 2500.50)

	balance, err := repo.Get(userID)
	require.NoError(t, err)
	assert.Equal(t, userID, balance.UserID)
	assert.Equal(t, 2500.50, balance.CashBalance)
}

func TestGetUnknownUser(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())

	_, err := repo.Get(9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustTxMovesCashBothWays(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 1000.0)

	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if err := repo.AdjustTx(tx, userID, -250.0); err != nil {
			return err
		}
		return repo.AdjustTx(tx, userID, 100.0)
	})
	require.NoError(t, err)

	balance, err := repo.Get(userID)
	require.NoError(t, err)
	assert.Equal(t, 850.0, balance.CashBalance)
}

func TestAdjustTxUnknownUser(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())

	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		return repo.AdjustTx(tx, 9999, 10.0)
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInitializeTxRejectsSecondBalance(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 1000.0)

	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		return repo.InitializeTx(tx, userID, 5000.0)
	})
	require.Error(t, err)

	balance, err := repo.Get(userID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance.CashBalance)
}
