package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apetros/paperbroker/internal/config"
	"github.com/apetros/paperbroker/internal/events"
	"github.com/apetros/paperbroker/internal/modules/accounts"
	"github.com/apetros/paperbroker/internal/modules/audit"
	"github.com/apetros/paperbroker/internal/modules/balances"
	"github.com/apetros/paperbroker/internal/modules/history"
	historyhandlers "github.com/apetros/paperbroker/internal/modules/history/handlers"
	"github.com/apetros/paperbroker/internal/modules/ledger"
	ledgerhandlers "github.com/apetros/paperbroker/internal/modules/ledger/handlers"
	"github.com/apetros/paperbroker/internal/modules/portfolio"
	portfoliohandlers "github.com/apetros/paperbroker/internal/modules/portfolio/handlers"
	"github.com/apetros/paperbroker/internal/modules/preferences"
	preferencehandlers "github.com/apetros/paperbroker/internal/modules/preferences/handlers"
	"github.com/apetros/paperbroker/internal/modules/roles"
	"github.com/apetros/paperbroker/internal/modules/sessions"
	"github.com/apetros/paperbroker/internal/modules/settings"
	"github.com/apetros/paperbroker/internal/modules/trading"
	tradinghandlers "github.com/apetros/paperbroker/internal/modules/trading/handlers"
	brokertest "github.com/apetros/paperbroker/internal/testing"
)

// newTestServer assembles the full HTTP surface over a throwaway store
func newTestServer(t *testing.T) (http.Handler, *roles.Repository, func()) {
	t.Helper()

	db, cleanup := brokertest.NewTestDB(t)
	log := zerolog.Nop()
	eventManager := events.NewManager(log)

	balanceRepo := balances.NewRepository(db.Conn(), log)
	prefsRepo := preferences.NewRepository(db.Conn(), log)
	positionRepo := portfolio.NewPositionRepository(db.Conn(), log)
	ledgerRepo := ledger.NewRepository(db.Conn(), log)
	historyRepo := history.NewRepository(db.Conn(), log)
	rolesRepo := roles.NewRepository(db.Conn(), log)
	settingsRepo := settings.NewRepository(db.Conn(), log)
	auditRepo := audit.NewRepository(db.Conn(), log)

	accountsService := accounts.NewService(
		db, accounts.NewRepository(db.Conn(), log),
		balanceRepo, prefsRepo, eventManager, 100000.0, log)
	sessionsService := sessions.NewService(
		db, sessions.NewRepository(db.Conn(), log),
		accountsService, eventManager, 24*time.Hour, log)
	tradingService := trading.NewService(
		db, balanceRepo, positionRepo, ledgerRepo, eventManager, 9.99, true, log)
	portfolioService := portfolio.NewService(positionRepo, balanceRepo, historyRepo, log)
	prefsService := preferences.NewService(prefsRepo, eventManager, log)

	cfg := &config.Config{
		DataDir:         t.TempDir(),
		Port:            0,
		StartingCash:    100000.0,
		Commission:      9.99,
		EnforceSolvency: true,
		SessionTTL:      24 * time.Hour,
	}

	srv := New(Config{
		Log:         log,
		Cfg:         cfg,
		DB:          db,
		Accounts:    accountsService,
		Sessions:    sessionsService,
		Roles:       rolesRepo,
		Settings:    settingsRepo,
		AuditRepo:   auditRepo,
		Portfolio:   portfoliohandlers.NewHandler(portfolioService, balanceRepo, log),
		Trading:     tradinghandlers.NewHandler(tradingService, log),
		Ledger:      ledgerhandlers.NewHandler(ledgerRepo, log),
		Preferences: preferencehandlers.NewHandler(prefsService, log),
		History:     historyhandlers.NewHandler(historyRepo, log),
	})

	return srv.Router(), rolesRepo, cleanup
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func registerAndLogin(t *testing.T, handler http.Handler, username string) (string, int64) {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		UserID int64  `json:"user_id"`
		Token  string `json:"token"`
	}
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.Token)

	return login.Token, login.UserID
}

func TestHealthEndpoint(t *testing.T) {
	handler, _, cleanup := newTestServer(t)
	defer cleanup()

	rec := doJSON(t, handler, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFullTradingFlow(t *testing.T) {
	handler, _, cleanup := newTestServer(t)
	defer cleanup()

	token, _ := registerAndLogin(t, handler, "alice")

	// Buy 50 AAPL at 100
	rec := doJSON(t, handler, http.MethodPost, "/api/trades", token, map[string]interface{}{
		"symbol": "AAPL", "side": "BUY", "shares": 50, "price": 100.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var confirmation struct {
		SharesAfter float64 `json:"shares_after"`
		CashAfter   float64 `json:"cash_after"`
	}
	decodeBody(t, rec, &confirmation)
	assert.Equal(t, 50.0, confirmation.SharesAfter)
	assert.Equal(t, 95000.0, confirmation.CashAfter)

	// Sell 20 at 120
	rec = doJSON(t, handler, http.MethodPost, "/api/trades", token, map[string]interface{}{
		"symbol": "AAPL", "side": "SELL", "shares": 20, "price": 120.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeBody(t, rec, &confirmation)
	assert.Equal(t, 30.0, confirmation.SharesAfter)
	assert.Equal(t, 97400.0, confirmation.CashAfter)

	// Position reflects both trades
	rec = doJSON(t, handler, http.MethodGet, "/api/portfolio/AAPL", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var position struct {
		Shares  float64 `json:"shares"`
		AvgCost float64 `json:"avg_cost"`
	}
	decodeBody(t, rec, &position)
	assert.Equal(t, 30.0, position.Shares)
	assert.Equal(t, 100.0, position.AvgCost)

	// Ledger holds both entries, most recent first
	rec = doJSON(t, handler, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var historyResp struct {
		Trades []struct {
			Side string `json:"side"`
		} `json:"trades"`
	}
	decodeBody(t, rec, &historyResp)
	require.Len(t, historyResp.Trades, 2)
	assert.Equal(t, "SELL", historyResp.Trades[0].Side)
	assert.Equal(t, "BUY", historyResp.Trades[1].Side)
}

func TestErrorStatusMapping(t *testing.T) {
	handler, _, cleanup := newTestServer(t)
	defer cleanup()

	token, _ := registerAndLogin(t, handler, "alice")

	t.Run("invalid trade parameters", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/trades", token, map[string]interface{}{
			"symbol": "AAPL", "side": "SHORT", "shares": 1, "price": 10.0,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/trades", token, map[string]interface{}{
			"symbol": "AAPL", "side": "BUY", "shares": 10000, "price": 100.0,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("insufficient shares", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/trades", token, map[string]interface{}{
			"symbol": "MSFT", "side": "SELL", "shares": 1, "price": 10.0,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": "alice", "password": "pw",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("bad login", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "alice", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthRequired(t *testing.T) {
	handler, _, cleanup := newTestServer(t)
	defer cleanup()

	paths := []string{"/api/portfolio", "/api/balance", "/api/history", "/api/auth/me"}
	for _, path := range paths {
		rec := doJSON(t, handler, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/portfolio", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	handler, _, cleanup := newTestServer(t)
	defer cleanup()

	token, _ := registerAndLogin(t, handler, "alice")

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPreferencesRoundTrip(t *testing.T) {
	handler, _, cleanup := newTestServer(t)
	defer cleanup()

	token, _ := registerAndLogin(t, handler, "alice")

	rec := doJSON(t, handler, http.MethodGet, "/api/preferences", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var prefs struct {
		DarkMode         bool   `json:"dark_mode"`
		DefaultTimeframe string `json:"default_timeframe"`
	}
	decodeBody(t, rec, &prefs)
	assert.True(t, prefs.DarkMode)
	assert.Equal(t, "1D", prefs.DefaultTimeframe)

	rec = doJSON(t, handler, http.MethodPatch, "/api/preferences", token, map[string]interface{}{
		"dark_mode": false, "default_timeframe": "1W",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &prefs)
	assert.False(t, prefs.DarkMode)
	assert.Equal(t, "1W", prefs.DefaultTimeframe)
}

func TestAdminSurfaceGatedOnPermission(t *testing.T) {
	handler, rolesRepo, cleanup := newTestServer(t)
	defer cleanup()

	token, userID := registerAndLogin(t, handler, "alice")

	rec := doJSON(t, handler, http.MethodGet, "/api/admin/activity", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	roleID, err := rolesRepo.CreateRole("admin", "")
	require.NoError(t, err)
	permID, err := rolesRepo.CreatePermission("system.administer", "system")
	require.NoError(t, err)
	require.NoError(t, rolesRepo.GrantPermission(roleID, permID))
	require.NoError(t, rolesRepo.AssignRole(userID, roleID, 0))

	rec = doJSON(t, handler, http.MethodGet, "/api/admin/activity", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodPut, "/api/admin/config/trade_commission", token,
		map[string]string{"value": "4.99"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodGet, "/api/admin/config", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var configResp map[string]string
	decodeBody(t, rec, &configResp)
	assert.Equal(t, "4.99", configResp["trade_commission"])
}

func TestAdminDeactivateUserRevokesAccess(t *testing.T) {
	handler, rolesRepo, cleanup := newTestServer(t)
	defer cleanup()

	adminToken, adminID := registerAndLogin(t, handler, "alice")
	bobToken, bobID := registerAndLogin(t, handler, "bob")

	roleID, err := rolesRepo.CreateRole("admin", "")
	require.NoError(t, err)
	permID, err := rolesRepo.CreatePermission("system.administer", "system")
	require.NoError(t, err)
	require.NoError(t, rolesRepo.GrantPermission(roleID, permID))
	require.NoError(t, rolesRepo.AssignRole(adminID, roleID, 0))

	rec := doJSON(t, handler, http.MethodGet, "/api/auth/me", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, handler, http.MethodPost,
		fmt.Sprintf("/api/admin/users/%d/deactivate", bobID), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Bob's token is dead, and he cannot log back in
	rec = doJSON(t, handler, http.MethodGet, "/api/auth/me", bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "bob",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, http.MethodPost,
		"/api/admin/users/9999/deactivate", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
