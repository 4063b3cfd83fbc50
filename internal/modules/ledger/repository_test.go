package ledger

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apetros/paperbroker/internal/database"
	"github.com/apetros/paperbroker/internal/domain"
	brokertest "github.com/apetros/paperbroker/internal/testing"
)

func appendEntry(t *testing.T, db *database.DB, repo *Repository, entry *Entry) {
	t.Helper()

	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		return repo.AppendTx(tx, entry)
	})
	require.NoError(t, err)
}

func testEntry(userID int64, orderID, symbol string, side domain.Side, executedAt time.Time) *Entry {
	return &Entry{
		OrderID:     orderID,
		UserID:      userID,
		Symbol:      symbol,
		Side:        side,
		Shares:      10,
		Price:       100,
		TotalAmount: 1000,
		Commission:  9.99,
		ExecutedAt:  executedAt,
	}
}

func TestAppendAndHistory(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 1000.0)

	base := time.Now().UTC().Truncate(time.Second)
	first := testEntry(userID, "order-1", "AAPL", domain.SideBuy, base.Add(-2*time.Minute))
	second := testEntry(userID, "order-2", "MSFT", domain.SideBuy, base.Add(-time.Minute))
	third := testEntry(userID, "order-3", "AAPL", domain.SideSell, base)

	for _, e := range []*Entry{first, second, third} {
		appendEntry(t, db, repo, e)
		assert.NotZero(t, e.ID)
	}

	entries, err := repo.History(userID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "order-3", entries[0].OrderID)
	assert.Equal(t, "order-2", entries[1].OrderID)
	assert.Equal(t, "order-1", entries[2].OrderID)
	assert.Equal(t, domain.SideSell, entries[0].Side)
	assert.Equal(t, 9.99, entries[0].Commission)
	assert.Equal(t, base, entries[0].ExecutedAt)
}

func TestHistoryHonorsLimit(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 1000.0)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		appendEntry(t, db, repo, testEntry(userID,
			"order-"+string(rune('a'+i)), "AAPL", domain.SideBuy, base.Add(time.Duration(i)*time.Second)))
	}

	entries, err := repo.History(userID, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHistoryForSymbolFilters(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 1000.0)

	now := time.Now().UTC()
	appendEntry(t, db, repo, testEntry(userID, "order-1", "AAPL", domain.SideBuy, now))
	appendEntry(t, db, repo, testEntry(userID, "order-2", "MSFT", domain.SideBuy, now))
	appendEntry(t, db, repo, testEntry(userID, "order-3", "AAPL", domain.SideSell, now))

	entries, err := repo.HistoryForSymbol(userID, "aapl", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "AAPL", e.Symbol)
	}
}

func TestDuplicateOrderIDRejected(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := brokertest.SeedUser(t, db, "alice", 1000.0)

	now := time.Now().UTC()
	appendEntry(t, db, repo, testEntry(userID, "order-1", "AAPL", domain.SideBuy, now))

	err := database.WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		return repo.AppendTx(tx, testEntry(userID, "order-1", "MSFT", domain.SideBuy, now))
	})
	require.Error(t, err)

	count, err := repo.CountForUser(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestHistoryIsolatedPerUser(t *testing.T) {
	db, cleanup := brokertest.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	alice := brokertest.SeedUser(t, db, "alice", 1000.0)
	bob := brokertest.SeedUser(t, db, "bob", 1000.0)

	now := time.Now().UTC()
	appendEntry(t, db, repo, testEntry(alice, "order-1", "AAPL", domain.SideBuy, now))
	appendEntry(t, db, repo, testEntry(bob, "order-2", "AAPL", domain.SideBuy, now))

	entries, err := repo.History(alice, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "order-1", entries[0].OrderID)
}
