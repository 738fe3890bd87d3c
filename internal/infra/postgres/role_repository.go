package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/role"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

// RoleRepository implements role.Repository using PostgreSQL.
type RoleRepository struct {
	db *DB
}

// NewRoleRepository creates a new RoleRepository.
func NewRoleRepository(db *DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create persists a new role.
func (r *RoleRepository) Create(ctx context.Context, ro *role.Role) error {
	query := `
		INSERT INTO roles (id, dealership_id, name, description, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		ro.ID().String(),
		ro.DealershipID().String(),
		ro.Name(),
		nullString(ro.Description()),
		ro.IsActive(),
		ro.CreatedAt(),
		ro.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return role.ErrRoleExists
		}
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

// GetByID retrieves a role by its ID.
func (r *RoleRepository) GetByID(ctx context.Context, id shared.ID) (*role.Role, error) {
	query := `
		SELECT id, dealership_id, name, description, active, created_at, updated_at
		FROM roles
		WHERE id = $1
	`

	ro, err := scanRole(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, role.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return ro, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*role.Role, error) {
	var (
		id           string
		dealershipID string
		name         string
		description  sql.NullString
		active       bool
		createdAt    time.Time
		updatedAt    time.Time
	)
	if err := row.Scan(&id, &dealershipID, &name, &description, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsedID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id %q: %w", id, err)
	}
	parsedDealershipID, err := shared.ParseID(dealershipID)
	if err != nil {
		return nil, fmt.Errorf("invalid dealership id %q: %w", dealershipID, err)
	}

	return role.Reconstruct(parsedID, parsedDealershipID, name,
		nullStringValue(description), active, createdAt, updatedAt), nil
}

// ListForDealership returns all roles of a dealership.
func (r *RoleRepository) ListForDealership(ctx context.Context, dealershipID shared.ID) ([]*role.Role, error) {
	query := `
		SELECT id, dealership_id, name, description, active, created_at, updated_at
		FROM roles
		WHERE dealership_id = $1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, dealershipID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*role.Role
	for rows.Next() {
		ro, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, ro)
	}
	return roles, rows.Err()
}

// Update persists changes to a role.
func (r *RoleRepository) Update(ctx context.Context, ro *role.Role) error {
	query := `
		UPDATE roles
		SET name = $2, description = $3, active = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		ro.ID().String(),
		ro.Name(),
		nullString(ro.Description()),
		ro.IsActive(),
		ro.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return role.ErrRoleNotFound
	}
	return nil
}

// ListModuleGates returns the explicit gate rows for a role. Modules
// without a row are enabled.
func (r *RoleRepository) ListModuleGates(ctx context.Context, roleID shared.ID) ([]role.ModuleGate, error) {
	gates, err := r.ListModuleGatesBatch(ctx, []shared.ID{roleID})
	if err != nil {
		return nil, err
	}
	return gates[roleID], nil
}

// SetModuleGate upserts a gate row.
func (r *RoleRepository) SetModuleGate(ctx context.Context, gate role.ModuleGate) error {
	query := `
		INSERT INTO role_module_gates (role_id, module, enabled, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (role_id, module)
		DO UPDATE SET enabled = EXCLUDED.enabled,
		              updated_at = EXCLUDED.updated_at,
		              updated_by = EXCLUDED.updated_by
	`

	_, err := r.db.ExecContext(ctx, query,
		gate.RoleID.String(),
		gate.Module.String(),
		gate.Enabled,
		gate.UpdatedAt,
		nullIDValue(gate.UpdatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to set module gate: %w", err)
	}
	return nil
}

// RemoveModuleGate deletes a gate row, returning the module to the
// enabled default for the role.
func (r *RoleRepository) RemoveModuleGate(ctx context.Context, roleID shared.ID, m module.Module) error {
	query := `DELETE FROM role_module_gates WHERE role_id = $1 AND module = $2`

	_, err := r.db.ExecContext(ctx, query, roleID.String(), m.String())
	if err != nil {
		return fmt.Errorf("failed to remove module gate: %w", err)
	}
	return nil
}

// ListGrants returns the granular grants of a role.
func (r *RoleRepository) ListGrants(ctx context.Context, roleID shared.ID) ([]role.Grant, error) {
	grants, err := r.ListGrantsBatch(ctx, []shared.ID{roleID})
	if err != nil {
		return nil, err
	}
	return grants[roleID], nil
}

// AddGrant inserts a grant row. Granting an action a role already holds
// is a no-op.
func (r *RoleRepository) AddGrant(ctx context.Context, grant role.Grant) error {
	query := `
		INSERT INTO role_grants (role_id, action, granted_at, granted_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (role_id, action) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		grant.RoleID.String(),
		grant.Action.String(),
		grant.GrantedAt,
		nullIDValue(grant.GrantedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to add grant: %w", err)
	}
	return nil
}

// RemoveGrant deletes a grant row.
func (r *RoleRepository) RemoveGrant(ctx context.Context, roleID shared.ID, action permission.Action) error {
	query := `DELETE FROM role_grants WHERE role_id = $1 AND action = $2`

	result, err := r.db.ExecContext(ctx, query, roleID.String(), action.String())
	if err != nil {
		return fmt.Errorf("failed to remove grant: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return role.ErrGrantNotFound
	}
	return nil
}

// ListModuleGatesBatch loads gate rows for several roles in one query.
func (r *RoleRepository) ListModuleGatesBatch(ctx context.Context, roleIDs []shared.ID) (map[shared.ID][]role.ModuleGate, error) {
	result := make(map[shared.ID][]role.ModuleGate, len(roleIDs))
	if len(roleIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT role_id, module, enabled, updated_at, updated_by
		FROM role_module_gates
		WHERE role_id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(idStrings(roleIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to list module gates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			roleID    string
			mod       string
			enabled   bool
			updatedAt time.Time
			updatedBy sql.NullString
		)
		if err := rows.Scan(&roleID, &mod, &enabled, &updatedAt, &updatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan module gate: %w", err)
		}
		parsedRoleID, err := shared.ParseID(roleID)
		if err != nil {
			return nil, fmt.Errorf("invalid role id %q: %w", roleID, err)
		}
		result[parsedRoleID] = append(result[parsedRoleID], role.ModuleGate{
			RoleID:    parsedRoleID,
			Module:    module.Module(mod),
			Enabled:   enabled,
			UpdatedAt: updatedAt,
			UpdatedBy: parseNullID(updatedBy),
		})
	}
	return result, rows.Err()
}

// ListGrantsBatch loads grant rows for several roles in one query.
func (r *RoleRepository) ListGrantsBatch(ctx context.Context, roleIDs []shared.ID) (map[shared.ID][]role.Grant, error) {
	result := make(map[shared.ID][]role.Grant, len(roleIDs))
	if len(roleIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT role_id, action, granted_at, granted_by
		FROM role_grants
		WHERE role_id = ANY($1)
		ORDER BY action
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(idStrings(roleIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			roleID    string
			action    string
			grantedAt time.Time
			grantedBy sql.NullString
		)
		if err := rows.Scan(&roleID, &action, &grantedAt, &grantedBy); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		parsedRoleID, err := shared.ParseID(roleID)
		if err != nil {
			return nil, fmt.Errorf("invalid role id %q: %w", roleID, err)
		}
		result[parsedRoleID] = append(result[parsedRoleID], role.Grant{
			RoleID:    parsedRoleID,
			Action:    permission.Action(action),
			GrantedAt: grantedAt,
			GrantedBy: parseNullID(grantedBy),
		})
	}
	return result, rows.Err()
}

// Assign inserts an assignment row, reactivating a previously removed
// one if present.
func (r *RoleRepository) Assign(ctx context.Context, a role.Assignment) error {
	query := `
		INSERT INTO user_role_assignments (id, user_id, dealership_id, role_id, active, assigned_at, assigned_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, dealership_id, role_id)
		DO UPDATE SET active = EXCLUDED.active,
		              assigned_at = EXCLUDED.assigned_at,
		              assigned_by = EXCLUDED.assigned_by
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID.String(),
		a.UserID.String(),
		a.DealershipID.String(),
		a.RoleID.String(),
		a.Active,
		a.AssignedAt,
		nullIDValue(a.AssignedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// Unassign deactivates an assignment.
func (r *RoleRepository) Unassign(ctx context.Context, userID, dealershipID, roleID shared.ID) error {
	query := `
		UPDATE user_role_assignments
		SET active = false
		WHERE user_id = $1 AND dealership_id = $2 AND role_id = $3 AND active
	`

	result, err := r.db.ExecContext(ctx, query, userID.String(), dealershipID.String(), roleID.String())
	if err != nil {
		return fmt.Errorf("failed to unassign role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return role.ErrAssignmentNotFound
	}
	return nil
}

// ListActiveAssignments returns the user's active assignments within a
// dealership, excluding assignments to deactivated roles.
func (r *RoleRepository) ListActiveAssignments(ctx context.Context, userID, dealershipID shared.ID) ([]role.Assignment, error) {
	query := `
		SELECT a.id, a.user_id, a.dealership_id, a.role_id, a.active, a.assigned_at, a.assigned_by
		FROM user_role_assignments a
		JOIN roles r ON r.id = a.role_id
		WHERE a.user_id = $1 AND a.dealership_id = $2 AND a.active AND r.active
	`

	rows, err := r.db.QueryContext(ctx, query, userID.String(), dealershipID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []role.Assignment
	for rows.Next() {
		var (
			id           string
			uID          string
			dID          string
			rID          string
			active       bool
			assignedAt   time.Time
			assignedBy   sql.NullString
		)
		if err := rows.Scan(&id, &uID, &dID, &rID, &active, &assignedAt, &assignedBy); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a, err := reconstructAssignment(id, uID, dID, rID, active, assignedAt, assignedBy)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListMemberIDs returns the users actively holding a role.
func (r *RoleRepository) ListMemberIDs(ctx context.Context, roleID shared.ID) ([]shared.ID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM user_role_assignments
		WHERE role_id = $1 AND active
	`

	rows, err := r.db.QueryContext(ctx, query, roleID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []shared.ID
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		id, err := shared.ParseID(userID)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func reconstructAssignment(id, userID, dealershipID, roleID string, active bool, assignedAt time.Time, assignedBy sql.NullString) (role.Assignment, error) {
	parsedID, err := shared.ParseID(id)
	if err != nil {
		return role.Assignment{}, fmt.Errorf("invalid assignment id %q: %w", id, err)
	}
	parsedUserID, err := shared.ParseID(userID)
	if err != nil {
		return role.Assignment{}, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	parsedDealershipID, err := shared.ParseID(dealershipID)
	if err != nil {
		return role.Assignment{}, fmt.Errorf("invalid dealership id %q: %w", dealershipID, err)
	}
	parsedRoleID, err := shared.ParseID(roleID)
	if err != nil {
		return role.Assignment{}, fmt.Errorf("invalid role id %q: %w", roleID, err)
	}
	return role.Assignment{
		ID:           parsedID,
		UserID:       parsedUserID,
		DealershipID: parsedDealershipID,
		RoleID:       parsedRoleID,
		Active:       active,
		AssignedAt:   assignedAt,
		AssignedBy:   parseNullID(assignedBy),
	}, nil
}

func idStrings(ids []shared.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
