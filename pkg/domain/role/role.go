// Package role holds tenant-scoped roles, their module gates, granular
// grants, and user assignments.
package role

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrRoleExists         = errors.New("role already exists")
	ErrAssignmentNotFound = errors.New("role assignment not found")
	ErrGrantNotFound      = errors.New("role grant not found")
)

// Role is a named permission bundle scoped to one dealership.
type Role struct {
	id           shared.ID
	dealershipID shared.ID
	name         string
	description  string
	active       bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewRole creates an active role for a dealership.
func NewRole(dealershipID shared.ID, name, description string) (*Role, error) {
	if dealershipID.IsZero() {
		return nil, fmt.Errorf("%w: dealership id is required", shared.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	now := time.Now().UTC()
	return &Role{
		id:           shared.NewID(),
		dealershipID: dealershipID,
		name:         name,
		description:  strings.TrimSpace(description),
		active:       true,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a role from stored state.
func Reconstruct(id, dealershipID shared.ID, name, description string, active bool, createdAt, updatedAt time.Time) *Role {
	return &Role{
		id:           id,
		dealershipID: dealershipID,
		name:         name,
		description:  description,
		active:       active,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (r *Role) ID() shared.ID           { return r.id }
func (r *Role) DealershipID() shared.ID { return r.dealershipID }
func (r *Role) Name() string            { return r.name }
func (r *Role) Description() string     { return r.description }
func (r *Role) IsActive() bool          { return r.active }
func (r *Role) CreatedAt() time.Time    { return r.createdAt }
func (r *Role) UpdatedAt() time.Time    { return r.updatedAt }

// Deactivate soft-deletes the role. Gates, grants, and assignments stay
// in place so the role can be reactivated intact.
func (r *Role) Deactivate() {
	r.active = false
	r.updatedAt = time.Now().UTC()
}

// Reactivate restores a deactivated role.
func (r *Role) Reactivate() {
	r.active = true
	r.updatedAt = time.Now().UTC()
}

// Rename updates the role's name and description.
func (r *Role) Rename(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	r.name = name
	r.description = strings.TrimSpace(description)
	r.updatedAt = time.Now().UTC()
	return nil
}

// ModuleGate switches a module on or off for a role. Roles without a
// gate row for a module are treated as enabled; gates restrict, they do
// not provision. Closing a gate leaves the role's grants in that module
// dormant rather than deleting them.
type ModuleGate struct {
	RoleID    shared.ID     `json:"role_id"`
	Module    module.Module `json:"module"`
	Enabled   bool          `json:"enabled"`
	UpdatedAt time.Time     `json:"updated_at"`
	UpdatedBy shared.ID     `json:"updated_by"`
}

// GateMap folds gate rows into the lookup form resolution consumes.
// Rows for modules outside the closed set are dropped.
func GateMap(gates []ModuleGate) map[module.Module]bool {
	out := make(map[module.Module]bool, len(gates))
	for _, g := range gates {
		if g.Module.IsValid() {
			out[g.Module] = g.Enabled
		}
	}
	return out
}

// Grant assigns one granular action to a role.
type Grant struct {
	RoleID    shared.ID         `json:"role_id"`
	Action    permission.Action `json:"action"`
	GrantedAt time.Time         `json:"granted_at"`
	GrantedBy shared.ID         `json:"granted_by"`
}

// Assignment links a user to a role within a dealership. A user can hold
// several roles in the same dealership and different roles in different
// dealerships.
type Assignment struct {
	ID           shared.ID `json:"id"`
	UserID       shared.ID `json:"user_id"`
	DealershipID shared.ID `json:"dealership_id"`
	RoleID       shared.ID `json:"role_id"`
	Active       bool      `json:"active"`
	AssignedAt   time.Time `json:"assigned_at"`
	AssignedBy   shared.ID `json:"assigned_by"`
}
