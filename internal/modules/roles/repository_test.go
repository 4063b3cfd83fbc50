package roles

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apetros/paperbroker/internal/domain"
	brokertest "github.com/apetros/paperbroker/internal/testing"
)

type rolesFixture struct {
	repo   *Repository
	userID int64
}

func newRolesFixture(t *testing.T) (*rolesFixture, func()) {
	t.Helper()

	db, cleanup := brokertest.NewTestDB(t)
	return &rolesFixture{
		repo:   NewRepository(db.Conn(), zerolog.Nop()),
		userID: brokertest.SeedUser(t, db, "alice", 1000.0),
	}, cleanup
}

func TestCreateRoleAndLookup(t *testing.T) {
	f, cleanup := newRolesFixture(t)
	defer cleanup()

	id, err := f.repo.CreateRole("admin", "full system access")
	require.NoError(t, err)
	require.NotZero(t, id)

	role, err := f.repo.GetRoleByName("admin")
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, id, role.ID)
	assert.Equal(t, "full system access", role.Description)
	assert.True(t, role.IsActive)

	missing, err := f.repo.GetRoleByName("nonexistent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	f, cleanup := newRolesFixture(t)
	defer cleanup()

	_, err := f.repo.CreateRole("admin", "")
	require.NoError(t, err)

	_, err = f.repo.CreateRole("admin", "again")
	assert.Error(t, err)
}

func TestHasPermissionWalksTheJoin(t *testing.T) {
	f, cleanup := newRolesFixture(t)
	defer cleanup()

	roleID, err := f.repo.CreateRole("admin", "")
	require.NoError(t, err)
	permID, err := f.repo.CreatePermission("system.administer", "system")
	require.NoError(t, err)
	require.NoError(t, f.repo.GrantPermission(roleID, permID))

	// Granting twice must not fail
	require.NoError(t, f.repo.GrantPermission(roleID, permID))

	has, err := f.repo.HasPermission(f.userID, "system.administer")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, f.repo.AssignRole(f.userID, roleID, 0))

	has, err = f.repo.HasPermission(f.userID, "system.administer")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = f.repo.HasPermission(f.userID, "system.other")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRevokeRoleRemovesPermission(t *testing.T) {
	f, cleanup := newRolesFixture(t)
	defer cleanup()

	roleID, err := f.repo.CreateRole("admin", "")
	require.NoError(t, err)
	permID, err := f.repo.CreatePermission("system.administer", "system")
	require.NoError(t, err)
	require.NoError(t, f.repo.GrantPermission(roleID, permID))
	require.NoError(t, f.repo.AssignRole(f.userID, roleID, 0))

	require.NoError(t, f.repo.RevokeRole(f.userID, roleID))

	has, err := f.repo.HasPermission(f.userID, "system.administer")
	require.NoError(t, err)
	assert.False(t, has)

	roles, err := f.repo.GetUserRoles(f.userID)
	require.NoError(t, err)
	assert.Empty(t, roles)

	// Re-assignment reactivates the revoked row
	require.NoError(t, f.repo.AssignRole(f.userID, roleID, 0))
	has, err = f.repo.HasPermission(f.userID, "system.administer")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestRevokeRoleUnknownAssignment(t *testing.T) {
	f, cleanup := newRolesFixture(t)
	defer cleanup()

	err := f.repo.RevokeRole(f.userID, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetUserRolesOrderedByName(t *testing.T) {
	f, cleanup := newRolesFixture(t)
	defer cleanup()

	adminID, err := f.repo.CreateRole("admin", "")
	require.NoError(t, err)
	auditorID, err := f.repo.CreateRole("auditor", "")
	require.NoError(t, err)

	require.NoError(t, f.repo.AssignRole(f.userID, auditorID, 0))
	require.NoError(t, f.repo.AssignRole(f.userID, adminID, 0))

	roles, err := f.repo.GetUserRoles(f.userID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "admin", roles[0].Name)
	assert.Equal(t, "auditor", roles[1].Name)
}
