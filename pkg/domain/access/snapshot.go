package access

import (
	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

// RoleSnapshot carries the per-role layers for one of a user's active
// roles at resolution time.
type RoleSnapshot struct {
	RoleID shared.ID

	// Gates holds the role's module gates. A module absent from the map
	// counts as enabled; gates only restrict, so roles created before a
	// module existed keep working in it.
	Gates map[module.Module]bool

	// Grants are the granular actions assigned to the role.
	Grants []permission.Action
}

// GateOpen reports whether the role's gate for a module is open.
func (r RoleSnapshot) GateOpen(m module.Module) bool {
	enabled, ok := r.Gates[m]
	if !ok {
		return true
	}
	return enabled
}

// Snapshot is the point-in-time input to resolution: everything the
// resolver needs, already joined, so the computation itself touches no
// storage.
type Snapshot struct {
	DealershipID shared.ID
	UserID       shared.ID

	// ModuleGrants holds the dealership's provisioned modules. A module
	// absent from the map counts as disabled; tenants only get what the
	// platform has explicitly enabled for them.
	ModuleGrants map[module.Module]bool

	// Roles are the user's active roles within the dealership.
	Roles []RoleSnapshot

	// Catalog validates actions and supplies prerequisite chains.
	Catalog *permission.Catalog
}

// ModuleEnabled reports whether the dealership has the module enabled.
func (s Snapshot) ModuleEnabled(m module.Module) bool {
	return s.ModuleGrants[m]
}
