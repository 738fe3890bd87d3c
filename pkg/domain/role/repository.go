package role

import (
	"context"

	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

// Repository persists roles, gates, grants, and assignments.
type Repository interface {
	Create(ctx context.Context, r *Role) error
	GetByID(ctx context.Context, id shared.ID) (*Role, error)
	ListForDealership(ctx context.Context, dealershipID shared.ID) ([]*Role, error)
	Update(ctx context.Context, r *Role) error

	// Gate rows. Modules without a row are enabled for the role.
	ListModuleGates(ctx context.Context, roleID shared.ID) ([]ModuleGate, error)
	SetModuleGate(ctx context.Context, gate ModuleGate) error
	RemoveModuleGate(ctx context.Context, roleID shared.ID, m module.Module) error

	// Granular grants.
	ListGrants(ctx context.Context, roleID shared.ID) ([]Grant, error)
	AddGrant(ctx context.Context, grant Grant) error
	RemoveGrant(ctx context.Context, roleID shared.ID, action permission.Action) error

	// Batch loads for resolution, one query per layer across all of a
	// user's roles.
	ListModuleGatesBatch(ctx context.Context, roleIDs []shared.ID) (map[shared.ID][]ModuleGate, error)
	ListGrantsBatch(ctx context.Context, roleIDs []shared.ID) (map[shared.ID][]Grant, error)

	// Assignments.
	Assign(ctx context.Context, a Assignment) error
	Unassign(ctx context.Context, userID, dealershipID, roleID shared.ID) error
	ListActiveAssignments(ctx context.Context, userID, dealershipID shared.ID) ([]Assignment, error)

	// ListMemberIDs returns the users holding the role, for targeted
	// cache invalidation after role mutations.
	ListMemberIDs(ctx context.Context, roleID shared.ID) ([]shared.ID, error)
}
