package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydetailarea/access/pkg/domain/dealership"
	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/role"
	"github.com/mydetailarea/access/pkg/domain/shared"
	"github.com/mydetailarea/access/pkg/logger"
)

// spyInvalidator records invalidation calls.
type spyInvalidator struct {
	mu          sync.Mutex
	users       []string
	dealerships []string
}

func (s *spyInvalidator) InvalidateUser(_ context.Context, dealershipID, userID shared.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, cacheKey(dealershipID, userID))
}

func (s *spyInvalidator) InvalidateDealership(_ context.Context, dealershipID shared.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dealerships = append(s.dealerships, dealershipID.String())
}

type accessFixture struct {
	svc            *AccessService
	dealershipRepo *fakeDealershipRepo
	roleRepo       *fakeRoleRepo
	invalidator    *spyInvalidator

	dealershipID shared.ID
	roleID       shared.ID
	userID       shared.ID
	actor        shared.ID
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	ctx := context.Background()

	dealershipRepo := newFakeDealershipRepo()
	roleRepo := newFakeRoleRepo()
	invalidator := &spyInvalidator{}

	d, err := dealership.NewDealership("Premium Auto", "premium-auto")
	require.NoError(t, err)
	require.NoError(t, dealershipRepo.Create(ctx, d))

	r, err := role.NewRole(d.ID(), "Seller", "")
	require.NoError(t, err)
	require.NoError(t, roleRepo.Create(ctx, r))

	userID := shared.NewID()
	require.NoError(t, roleRepo.Assign(ctx, role.Assignment{
		ID:           shared.NewID(),
		UserID:       userID,
		DealershipID: d.ID(),
		RoleID:       r.ID(),
		Active:       true,
	}))

	catalogSvc := NewCatalogService(&fakeCatalogStore{defs: permission.DefaultDefinitions()}, time.Minute, logger.NewNop())
	svc := NewAccessService(dealershipRepo, roleRepo, catalogSvc, invalidator, logger.NewNop())

	return &accessFixture{
		svc:            svc,
		dealershipRepo: dealershipRepo,
		roleRepo:       roleRepo,
		invalidator:    invalidator,
		dealershipID:   d.ID(),
		roleID:         r.ID(),
		userID:         userID,
		actor:          shared.NewID(),
	}
}

func TestAccessServiceSetModuleGrant(t *testing.T) {
	fx := newAccessFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.svc.SetModuleGrant(ctx, fx.dealershipID, module.SalesOrders, true, fx.actor))

	grants, err := fx.dealershipRepo.ListModuleGrants(ctx, fx.dealershipID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.True(t, grants[0].Enabled)

	t.Run("invalidates the whole dealership", func(t *testing.T) {
		assert.Contains(t, fx.invalidator.dealerships, fx.dealershipID.String())
	})

	t.Run("unknown module rejected", func(t *testing.T) {
		err := fx.svc.SetModuleGrant(ctx, fx.dealershipID, "telemetry", true, fx.actor)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown dealership rejected", func(t *testing.T) {
		err := fx.svc.SetModuleGrant(ctx, shared.NewID(), module.SalesOrders, true, fx.actor)
		assert.ErrorIs(t, err, dealership.ErrDealershipNotFound)
	})
}

func TestAccessServiceGrantAction(t *testing.T) {
	fx := newAccessFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.svc.GrantAction(ctx, fx.roleID, permission.SalesOrdersView, fx.actor))

	grants, err := fx.roleRepo.ListGrants(ctx, fx.roleID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, permission.SalesOrdersView, grants[0].Action)

	t.Run("member entries invalidated", func(t *testing.T) {
		assert.Contains(t, fx.invalidator.users, cacheKey(fx.dealershipID, fx.userID))
	})

	t.Run("action outside the catalog rejected", func(t *testing.T) {
		err := fx.svc.GrantAction(ctx, fx.roleID, "sales_orders:approve", fx.actor)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		err := fx.svc.GrantAction(ctx, shared.NewID(), permission.SalesOrdersView, fx.actor)
		assert.ErrorIs(t, err, role.ErrRoleNotFound)
	})
}

func TestAccessServiceRevokeAction(t *testing.T) {
	fx := newAccessFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.svc.GrantAction(ctx, fx.roleID, permission.ChatView, fx.actor))
	require.NoError(t, fx.svc.RevokeAction(ctx, fx.roleID, permission.ChatView))

	grants, err := fx.roleRepo.ListGrants(ctx, fx.roleID)
	require.NoError(t, err)
	assert.Empty(t, grants)

	t.Run("revoking an absent grant errors", func(t *testing.T) {
		err := fx.svc.RevokeAction(ctx, fx.roleID, permission.ChatView)
		assert.ErrorIs(t, err, role.ErrGrantNotFound)
	})
}

func TestAccessServiceSetModuleGate(t *testing.T) {
	fx := newAccessFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.svc.SetModuleGate(ctx, fx.roleID, module.SalesOrders, false, fx.actor))

	gates, err := fx.roleRepo.ListModuleGates(ctx, fx.roleID)
	require.NoError(t, err)
	require.Len(t, gates, 1)
	assert.False(t, gates[0].Enabled)
	assert.Contains(t, fx.invalidator.users, cacheKey(fx.dealershipID, fx.userID))

	t.Run("grants survive a gate close", func(t *testing.T) {
		require.NoError(t, fx.svc.GrantAction(ctx, fx.roleID, permission.SalesOrdersView, fx.actor))
		require.NoError(t, fx.svc.SetModuleGate(ctx, fx.roleID, module.SalesOrders, false, fx.actor))

		grants, err := fx.roleRepo.ListGrants(ctx, fx.roleID)
		require.NoError(t, err)
		assert.Len(t, grants, 1)
	})
}

func TestAccessServiceRoleLifecycle(t *testing.T) {
	fx := newAccessFixture(t)
	ctx := context.Background()

	created, err := fx.svc.CreateRole(ctx, fx.dealershipID, "Detailer", "Detail team")
	require.NoError(t, err)
	assert.True(t, created.IsActive())

	require.NoError(t, fx.svc.DeactivateRole(ctx, created.ID()))
	got, err := fx.roleRepo.GetByID(ctx, created.ID())
	require.NoError(t, err)
	assert.False(t, got.IsActive())

	t.Run("blank name rejected", func(t *testing.T) {
		_, err := fx.svc.CreateRole(ctx, fx.dealershipID, "  ", "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestAccessServiceAssignments(t *testing.T) {
	fx := newAccessFixture(t)
	ctx := context.Background()
	newUser := shared.NewID()

	require.NoError(t, fx.svc.AssignRole(ctx, newUser, fx.dealershipID, fx.roleID, fx.actor))

	assignments, err := fx.roleRepo.ListActiveAssignments(ctx, newUser, fx.dealershipID)
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
	assert.Contains(t, fx.invalidator.users, cacheKey(fx.dealershipID, newUser))

	t.Run("role from another dealership rejected", func(t *testing.T) {
		other, err := dealership.NewDealership("Other Motors", "other-motors")
		require.NoError(t, err)
		require.NoError(t, fx.dealershipRepo.Create(ctx, other))

		err = fx.svc.AssignRole(ctx, newUser, other.ID(), fx.roleID, fx.actor)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, fx.svc.RemoveRole(ctx, newUser, fx.dealershipID, fx.roleID))
		assignments, err := fx.roleRepo.ListActiveAssignments(ctx, newUser, fx.dealershipID)
		require.NoError(t, err)
		assert.Empty(t, assignments)
	})
}
