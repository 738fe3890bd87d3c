package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydetailarea/access/internal/infra/memory"
	"github.com/mydetailarea/access/pkg/domain/access"
	"github.com/mydetailarea/access/pkg/domain/dealership"
	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/role"
	"github.com/mydetailarea/access/pkg/domain/shared"
	"github.com/mydetailarea/access/pkg/logger"
)

type resolverFixture struct {
	svc            *ResolverService
	dealershipRepo *fakeDealershipRepo
	roleRepo       *fakeRoleRepo
	memCache       *memory.Cache
	setCache       *fakeSetCache

	dealershipID shared.ID
	userID       shared.ID
	roleID       shared.ID
}

// newResolverFixture seeds one dealership with sales_orders enabled and
// one user holding one role granted view+create.
func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	ctx := context.Background()

	dealershipRepo := newFakeDealershipRepo()
	roleRepo := newFakeRoleRepo()

	d, err := dealership.NewDealership("Premium Auto", "premium-auto")
	require.NoError(t, err)
	require.NoError(t, dealershipRepo.Create(ctx, d))
	require.NoError(t, dealershipRepo.SetModuleGrant(ctx, dealership.ModuleGrant{
		DealershipID: d.ID(),
		Module:       module.SalesOrders,
		Enabled:      true,
	}))

	r, err := role.NewRole(d.ID(), "Seller", "")
	require.NoError(t, err)
	require.NoError(t, roleRepo.Create(ctx, r))
	require.NoError(t, roleRepo.AddGrant(ctx, role.Grant{RoleID: r.ID(), Action: permission.SalesOrdersView}))
	require.NoError(t, roleRepo.AddGrant(ctx, role.Grant{RoleID: r.ID(), Action: permission.SalesOrdersCreate}))

	userID := shared.NewID()
	require.NoError(t, roleRepo.Assign(ctx, role.Assignment{
		ID:           shared.NewID(),
		UserID:       userID,
		DealershipID: d.ID(),
		RoleID:       r.ID(),
		Active:       true,
	}))

	catalogStore := &fakeCatalogStore{defs: permission.DefaultDefinitions()}
	catalogSvc := NewCatalogService(catalogStore, time.Minute, logger.NewNop())
	memCache := memory.NewCache(100, time.Minute, "v1")
	setCache := newFakeSetCache()

	svc := NewResolverService(dealershipRepo, roleRepo, catalogSvc, memCache, setCache, time.Second, logger.NewNop())

	return &resolverFixture{
		svc:            svc,
		dealershipRepo: dealershipRepo,
		roleRepo:       roleRepo,
		memCache:       memCache,
		setCache:       setCache,
		dealershipID:   d.ID(),
		userID:         userID,
		roleID:         r.ID(),
	}
}

func TestResolverServiceResolve(t *testing.T) {
	fx := newResolverFixture(t)
	ctx := context.Background()

	set, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
	require.NoError(t, err)
	assert.Equal(t, []permission.Action{
		permission.SalesOrdersCreate,
		permission.SalesOrdersView,
	}, set.Actions())

	t.Run("result lands in both cache tiers", func(t *testing.T) {
		_, ok := fx.memCache.Get(fx.dealershipID, fx.userID)
		assert.True(t, ok)
		_, err := fx.setCache.Get(ctx, cacheKey(fx.dealershipID, fx.userID))
		assert.NoError(t, err)
	})

	t.Run("unknown user resolves to empty set", func(t *testing.T) {
		set, err := fx.svc.Resolve(ctx, fx.dealershipID, shared.NewID())
		require.NoError(t, err)
		assert.Equal(t, 0, set.Len())
	})
}

func TestResolverServiceCacheTiers(t *testing.T) {
	fx := newResolverFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
	require.NoError(t, err)

	// With the stores down, cached resolutions keep working.
	fx.roleRepo.failGrants = true
	fx.dealershipRepo.failGrants = true

	set, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
	require.NoError(t, err)
	assert.True(t, set.Has(permission.SalesOrdersView))

	t.Run("redis serves after memory invalidation", func(t *testing.T) {
		fx.memCache.Invalidate(fx.dealershipID, fx.userID)
		set, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
		require.NoError(t, err)
		assert.True(t, set.Has(permission.SalesOrdersView))
	})
}

func TestResolverServiceDataUnavailable(t *testing.T) {
	fx := newResolverFixture(t)
	ctx := context.Background()

	t.Run("grant layer failure fails closed", func(t *testing.T) {
		fx.roleRepo.failGrants = true
		defer func() { fx.roleRepo.failGrants = false }()

		_, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
		assert.ErrorIs(t, err, access.ErrDataUnavailable)
	})

	t.Run("gate layer failure fails closed", func(t *testing.T) {
		fx.roleRepo.failGates = true
		defer func() { fx.roleRepo.failGates = false }()

		_, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
		assert.ErrorIs(t, err, access.ErrDataUnavailable)
	})

	t.Run("module grant layer failure fails closed", func(t *testing.T) {
		fx.dealershipRepo.failGrants = true
		defer func() { fx.dealershipRepo.failGrants = false }()

		_, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
		assert.ErrorIs(t, err, access.ErrDataUnavailable)
	})

	t.Run("redis failure alone does not fail resolution", func(t *testing.T) {
		fx.setCache.fail = true
		defer func() { fx.setCache.fail = false }()
		fx.memCache.InvalidateAll()

		set, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
		require.NoError(t, err)
		assert.True(t, set.Has(permission.SalesOrdersView))
	})
}

func TestResolverServiceInvalidation(t *testing.T) {
	fx := newResolverFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
	require.NoError(t, err)

	t.Run("user scope", func(t *testing.T) {
		fx.svc.InvalidateUser(ctx, fx.dealershipID, fx.userID)
		_, ok := fx.memCache.Get(fx.dealershipID, fx.userID)
		assert.False(t, ok)
		_, err := fx.setCache.Get(ctx, cacheKey(fx.dealershipID, fx.userID))
		assert.Error(t, err)
	})

	t.Run("dealership scope", func(t *testing.T) {
		_, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
		require.NoError(t, err)

		fx.svc.InvalidateDealership(ctx, fx.dealershipID)
		_, ok := fx.memCache.Get(fx.dealershipID, fx.userID)
		assert.False(t, ok)
	})

	t.Run("all scope", func(t *testing.T) {
		_, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
		require.NoError(t, err)

		fx.svc.InvalidateAll(ctx)
		_, ok := fx.memCache.Get(fx.dealershipID, fx.userID)
		assert.False(t, ok)
	})
}

func TestResolverServicePicksUpMutations(t *testing.T) {
	fx := newResolverFixture(t)
	ctx := context.Background()

	set, err := fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
	require.NoError(t, err)
	require.True(t, set.Has(permission.SalesOrdersView))

	// Close the Seller gate, invalidate, and resolve again.
	require.NoError(t, fx.roleRepo.SetModuleGate(ctx, role.ModuleGate{
		RoleID:  fx.roleID,
		Module:  module.SalesOrders,
		Enabled: false,
	}))
	fx.svc.InvalidateUser(ctx, fx.dealershipID, fx.userID)

	set, err = fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	// Reopen the gate; the original set returns without any regranting.
	require.NoError(t, fx.roleRepo.SetModuleGate(ctx, role.ModuleGate{
		RoleID:  fx.roleID,
		Module:  module.SalesOrders,
		Enabled: true,
	}))
	fx.svc.InvalidateUser(ctx, fx.dealershipID, fx.userID)

	set, err = fx.svc.Resolve(ctx, fx.dealershipID, fx.userID)
	require.NoError(t, err)
	assert.Equal(t, []permission.Action{
		permission.SalesOrdersCreate,
		permission.SalesOrdersView,
	}, set.Actions())
}
