package app

import (
	"context"
	"errors"
	"sync"

	"github.com/mydetailarea/access/internal/infra/redis"
	"github.com/mydetailarea/access/pkg/domain/access"
	"github.com/mydetailarea/access/pkg/domain/dealership"
	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/role"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

var errFakeDown = errors.New("store down")

type fakeDealershipRepo struct {
	mu          sync.Mutex
	dealerships map[shared.ID]*dealership.Dealership
	grants      map[shared.ID][]dealership.ModuleGrant
	failGrants  bool
}

func newFakeDealershipRepo() *fakeDealershipRepo {
	return &fakeDealershipRepo{
		dealerships: make(map[shared.ID]*dealership.Dealership),
		grants:      make(map[shared.ID][]dealership.ModuleGrant),
	}
}

func (f *fakeDealershipRepo) Create(_ context.Context, d *dealership.Dealership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dealerships[d.ID()] = d
	return nil
}

func (f *fakeDealershipRepo) GetByID(_ context.Context, id shared.ID) (*dealership.Dealership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dealerships[id]
	if !ok {
		return nil, dealership.ErrDealershipNotFound
	}
	return d, nil
}

func (f *fakeDealershipRepo) GetBySlug(_ context.Context, slug string) (*dealership.Dealership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.dealerships {
		if d.Slug() == slug {
			return d, nil
		}
	}
	return nil, dealership.ErrDealershipNotFound
}

func (f *fakeDealershipRepo) List(_ context.Context) ([]*dealership.Dealership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*dealership.Dealership
	for _, d := range f.dealerships {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDealershipRepo) Update(_ context.Context, d *dealership.Dealership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dealerships[d.ID()] = d
	return nil
}

func (f *fakeDealershipRepo) ListModuleGrants(_ context.Context, dealershipID shared.ID) ([]dealership.ModuleGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGrants {
		return nil, errFakeDown
	}
	return f.grants[dealershipID], nil
}

func (f *fakeDealershipRepo) SetModuleGrant(_ context.Context, grant dealership.ModuleGrant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	grants := f.grants[grant.DealershipID]
	for i, g := range grants {
		if g.Module == grant.Module {
			grants[i] = grant
			return nil
		}
	}
	f.grants[grant.DealershipID] = append(grants, grant)
	return nil
}

func (f *fakeDealershipRepo) RemoveModuleGrant(_ context.Context, dealershipID shared.ID, m module.Module) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	grants := f.grants[dealershipID]
	for i, g := range grants {
		if g.Module == m {
			f.grants[dealershipID] = append(grants[:i], grants[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeRoleRepo struct {
	mu          sync.Mutex
	roles       map[shared.ID]*role.Role
	gates       map[shared.ID][]role.ModuleGate
	grants      map[shared.ID][]role.Grant
	assignments []role.Assignment
	failGates   bool
	failGrants  bool
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		roles:  make(map[shared.ID]*role.Role),
		gates:  make(map[shared.ID][]role.ModuleGate),
		grants: make(map[shared.ID][]role.Grant),
	}
}

func (f *fakeRoleRepo) Create(_ context.Context, r *role.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[r.ID()] = r
	return nil
}

func (f *fakeRoleRepo) GetByID(_ context.Context, id shared.ID) (*role.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.roles[id]
	if !ok {
		return nil, role.ErrRoleNotFound
	}
	return r, nil
}

func (f *fakeRoleRepo) ListForDealership(_ context.Context, dealershipID shared.ID) ([]*role.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*role.Role
	for _, r := range f.roles {
		if r.DealershipID().Equals(dealershipID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRoleRepo) Update(_ context.Context, r *role.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[r.ID()] = r
	return nil
}

func (f *fakeRoleRepo) ListModuleGates(ctx context.Context, roleID shared.ID) ([]role.ModuleGate, error) {
	gates, err := f.ListModuleGatesBatch(ctx, []shared.ID{roleID})
	if err != nil {
		return nil, err
	}
	return gates[roleID], nil
}

func (f *fakeRoleRepo) SetModuleGate(_ context.Context, gate role.ModuleGate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	gates := f.gates[gate.RoleID]
	for i, g := range gates {
		if g.Module == gate.Module {
			gates[i] = gate
			return nil
		}
	}
	f.gates[gate.RoleID] = append(gates, gate)
	return nil
}

func (f *fakeRoleRepo) RemoveModuleGate(_ context.Context, roleID shared.ID, m module.Module) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	gates := f.gates[roleID]
	for i, g := range gates {
		if g.Module == m {
			f.gates[roleID] = append(gates[:i], gates[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRoleRepo) ListGrants(ctx context.Context, roleID shared.ID) ([]role.Grant, error) {
	grants, err := f.ListGrantsBatch(ctx, []shared.ID{roleID})
	if err != nil {
		return nil, err
	}
	return grants[roleID], nil
}

func (f *fakeRoleRepo) AddGrant(_ context.Context, grant role.Grant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.grants[grant.RoleID] {
		if g.Action == grant.Action {
			return nil
		}
	}
	f.grants[grant.RoleID] = append(f.grants[grant.RoleID], grant)
	return nil
}

func (f *fakeRoleRepo) RemoveGrant(_ context.Context, roleID shared.ID, action permission.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	grants := f.grants[roleID]
	for i, g := range grants {
		if g.Action == action {
			f.grants[roleID] = append(grants[:i], grants[i+1:]...)
			return nil
		}
	}
	return role.ErrGrantNotFound
}

func (f *fakeRoleRepo) ListModuleGatesBatch(_ context.Context, roleIDs []shared.ID) (map[shared.ID][]role.ModuleGate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGates {
		return nil, errFakeDown
	}
	out := make(map[shared.ID][]role.ModuleGate)
	for _, id := range roleIDs {
		out[id] = f.gates[id]
	}
	return out, nil
}

func (f *fakeRoleRepo) ListGrantsBatch(_ context.Context, roleIDs []shared.ID) (map[shared.ID][]role.Grant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGrants {
		return nil, errFakeDown
	}
	out := make(map[shared.ID][]role.Grant)
	for _, id := range roleIDs {
		out[id] = f.grants[id]
	}
	return out, nil
}

func (f *fakeRoleRepo) Assign(_ context.Context, a role.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.assignments {
		if existing.UserID.Equals(a.UserID) && existing.DealershipID.Equals(a.DealershipID) && existing.RoleID.Equals(a.RoleID) {
			f.assignments[i] = a
			return nil
		}
	}
	f.assignments = append(f.assignments, a)
	return nil
}

func (f *fakeRoleRepo) Unassign(_ context.Context, userID, dealershipID, roleID shared.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.assignments {
		if a.UserID.Equals(userID) && a.DealershipID.Equals(dealershipID) && a.RoleID.Equals(roleID) && a.Active {
			f.assignments[i].Active = false
			return nil
		}
	}
	return role.ErrAssignmentNotFound
}

func (f *fakeRoleRepo) ListActiveAssignments(_ context.Context, userID, dealershipID shared.ID) ([]role.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []role.Assignment
	for _, a := range f.assignments {
		if !a.Active || !a.UserID.Equals(userID) || !a.DealershipID.Equals(dealershipID) {
			continue
		}
		if r, ok := f.roles[a.RoleID]; ok && !r.IsActive() {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRoleRepo) ListMemberIDs(_ context.Context, roleID shared.ID) ([]shared.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []shared.ID
	for _, a := range f.assignments {
		if a.Active && a.RoleID.Equals(roleID) {
			out = append(out, a.UserID)
		}
	}
	return out, nil
}

type fakeCatalogStore struct {
	mu   sync.Mutex
	defs []permission.Definition
	fail bool

	listCalls int
}

func (f *fakeCatalogStore) List(_ context.Context) ([]permission.Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.fail {
		return nil, errFakeDown
	}
	return f.defs, nil
}

func (f *fakeCatalogStore) Upsert(_ context.Context, defs []permission.Definition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errFakeDown
	}
	f.defs = defs
	return nil
}

// fakeSetCache is an in-memory stand-in for the Redis tier.
type fakeSetCache struct {
	mu      sync.Mutex
	entries map[string]access.EffectiveSet
	fail    bool
}

func newFakeSetCache() *fakeSetCache {
	return &fakeSetCache{entries: make(map[string]access.EffectiveSet)}
}

func (f *fakeSetCache) Get(_ context.Context, key string) (*access.EffectiveSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errFakeDown
	}
	set, ok := f.entries[key]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return &set, nil
}

func (f *fakeSetCache) Set(_ context.Context, key string, value access.EffectiveSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errFakeDown
	}
	f.entries[key] = value
	return nil
}

func (f *fakeSetCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeSetCache) DeletePattern(_ context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pattern == "*" {
		f.entries = make(map[string]access.EffectiveSet)
		return nil
	}
	prefix := pattern[:len(pattern)-1] // trailing '*'
	for k := range f.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(f.entries, k)
		}
	}
	return nil
}
