package access

import "github.com/mydetailarea/access/pkg/domain/permission"

// Resolver computes effective permission sets. It is stateless and safe
// for concurrent use.
type Resolver struct{}

// NewResolver returns a resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve computes the effective set for a snapshot.
//
// An action is effective through a role when every layer agrees:
//
//  1. the action is defined in the catalog,
//  2. the dealership has the action's module enabled,
//  3. the role's gate for that module is open,
//  4. the role holds a grant for the action, and
//  5. every prerequisite of the action is itself effective through the
//     same role.
//
// The result is the union across all roles. A prerequisite satisfied
// only by a different role does not count; each role must carry its own
// complete chain. Grants on disabled modules or behind closed gates are
// preserved but dormant, so re-enabling restores them without any grant
// mutation. Unknown modules and actions are skipped, never errors.
func (r *Resolver) Resolve(snap Snapshot) EffectiveSet {
	if snap.Catalog == nil || len(snap.Roles) == 0 {
		return NewEffectiveSet()
	}

	var effective []permission.Action
	for _, role := range snap.Roles {
		rr := roleResolution{
			snap:    snap,
			role:    role,
			granted: make(map[permission.Action]struct{}, len(role.Grants)),
			memo:    make(map[permission.Action]state, len(role.Grants)),
		}
		for _, a := range role.Grants {
			rr.granted[a] = struct{}{}
		}
		for _, a := range role.Grants {
			if rr.resolves(a) {
				effective = append(effective, a)
			}
		}
	}
	return NewEffectiveSet(effective...)
}

type state uint8

const (
	allowed state = iota + 1
	denied
)

// roleResolution evaluates one role's grants against the snapshot,
// memoizing per action so shared prerequisites are checked once.
type roleResolution struct {
	snap    Snapshot
	role    RoleSnapshot
	granted map[permission.Action]struct{}
	memo    map[permission.Action]state
}

func (rr *roleResolution) resolves(a permission.Action) bool {
	switch rr.memo[a] {
	case allowed:
		return true
	case denied:
		return false
	}
	// Recorded as denied before recursing into prerequisites. Catalogs
	// built through Build are acyclic, but a hand-assembled snapshot
	// must not send resolution into infinite recursion.
	rr.memo[a] = denied

	def, ok := rr.snap.Catalog.Lookup(a)
	if !ok {
		return false
	}
	if !rr.snap.ModuleEnabled(def.Module) {
		return false
	}
	if !rr.role.GateOpen(def.Module) {
		return false
	}
	if _, ok := rr.granted[a]; !ok {
		return false
	}
	for _, prereq := range def.Prerequisites {
		if !rr.resolves(prereq) {
			return false
		}
	}
	rr.memo[a] = allowed
	return true
}
