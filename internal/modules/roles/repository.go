// Package roles implements role-based access control: roles bundle
// permissions, users get role assignments, and access checks walk the
// join.
package roles

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/domain"
)

// Repository handles role and permission rows in the brokerage store
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new roles repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "roles").Logger(),
	}
}

// CreateRole inserts a role and returns its ID
func (r *Repository) CreateRole(name, description string) (int64, error) {
	result, err := r.db.Exec(
		`INSERT INTO roles (role_name, description, is_active) VALUES (?, ?, 1)`,
		name, nullString(description))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("role %q already exists", name)
		}
		return 0, fmt.Errorf("failed to create role: %w", err)
	}
	return result.LastInsertId()
}

// GetRoleByName retrieves a role. Returns nil when it does not exist.
func (r *Repository) GetRoleByName(name string) (*Role, error) {
	var role Role
	var description sql.NullString
	var isActive int

	err := r.db.QueryRow(
		`SELECT id, role_name, description, is_active FROM roles WHERE role_name = ?`, name).
		Scan(&role.ID, &role.Name, &description, &isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	role.Description = description.String
	role.IsActive = isActive != 0
	return &role, nil
}

// CreatePermission inserts a permission and returns its ID
func (r *Repository) CreatePermission(name, module string) (int64, error) {
	result, err := r.db.Exec(
		`INSERT INTO permissions (permission_name, module, is_active) VALUES (?, ?, 1)`,
		name, module)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("permission %q already exists", name)
		}
		return 0, fmt.Errorf("failed to create permission: %w", err)
	}
	return result.LastInsertId()
}

// GrantPermission attaches a permission to a role. Granting twice is
// not an error.
func (r *Repository) GrantPermission(roleID, permissionID int64) error {
	_, err := r.db.Exec(`
		INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)
		ON CONFLICT (role_id, permission_id) DO NOTHING
	`, roleID, permissionID)
	if err != nil {
		return fmt.Errorf("failed to grant permission: %w", err)
	}
	return nil
}

// AssignRole gives a user a role. Re-assigning reactivates a revoked
// assignment.
func (r *Repository) AssignRole(userID, roleID, assignedBy int64) error {
	var by sql.NullInt64
	if assignedBy > 0 {
		by = sql.NullInt64{Int64: assignedBy, Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO user_role_assignments (user_id, role_id, assigned_by, assigned_at, is_active)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT (user_id, role_id) DO UPDATE SET
			assigned_by = excluded.assigned_by,
			assigned_at = excluded.assigned_at,
			is_active = 1
	`, userID, roleID, by, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// RevokeRole deactivates a user's role assignment
func (r *Repository) RevokeRole(userID, roleID int64) error {
	result, err := r.db.Exec(
		`UPDATE user_role_assignments SET is_active = 0 WHERE user_id = ? AND role_id = ?`,
		userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to revoke role: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetUserRoles returns the active roles assigned to a user
func (r *Repository) GetUserRoles(userID int64) ([]Role, error) {
	rows, err := r.db.Query(`
		SELECT r.id, r.role_name, r.description, r.is_active
		FROM roles r
		JOIN user_role_assignments ura ON ura.role_id = r.id
		WHERE ura.user_id = ? AND ura.is_active = 1 AND r.is_active = 1
		ORDER BY r.role_name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	defer rows.Close()

	roles := []Role{}
	for rows.Next() {
		var role Role
		var description sql.NullString
		var isActive int
		if err := rows.Scan(&role.ID, &role.Name, &description, &isActive); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		role.Description = description.String
		role.IsActive = isActive != 0
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	return roles, nil
}

// HasPermission reports whether any of the user's active roles grants
// the named permission.
func (r *Repository) HasPermission(userID int64, permissionName string) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM user_role_assignments ura
		JOIN role_permissions rp ON rp.role_id = ura.role_id
		JOIN permissions p ON p.id = rp.permission_id
		JOIN roles r ON r.id = ura.role_id
		WHERE ura.user_id = ? AND ura.is_active = 1
			AND r.is_active = 1 AND p.is_active = 1
			AND p.permission_name = ?
	`, userID, permissionName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return count > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
