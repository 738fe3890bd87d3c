package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mydetailarea/access/internal/infra/memory"
	"github.com/mydetailarea/access/internal/infra/redis"
	"github.com/mydetailarea/access/internal/metrics"
	"github.com/mydetailarea/access/pkg/domain/access"
	"github.com/mydetailarea/access/pkg/domain/dealership"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/role"
	"github.com/mydetailarea/access/pkg/domain/shared"
	"github.com/mydetailarea/access/pkg/logger"
)

// EffectiveSetCache is the second cache tier, keyed
// {dealership_id}:{user_id} under a schema-versioned prefix.
type EffectiveSetCache interface {
	Get(ctx context.Context, key string) (*access.EffectiveSet, error)
	Set(ctx context.Context, key string, value access.EffectiveSet) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// ResolverService computes effective permission sets with a two-tier
// cache in front of the database. Lookup order: in-process cache, Redis,
// then a concurrent fetch of the three layers and a fresh computation.
type ResolverService struct {
	dealershipRepo dealership.Repository
	roleRepo       role.Repository
	catalogSvc     *CatalogService
	memCache       *memory.Cache
	redisCache     EffectiveSetCache
	resolver       *access.Resolver
	logger         *logger.Logger
	layerTimeout   time.Duration
}

// NewResolverService creates a resolver service.
func NewResolverService(
	dealershipRepo dealership.Repository,
	roleRepo role.Repository,
	catalogSvc *CatalogService,
	memCache *memory.Cache,
	redisCache EffectiveSetCache,
	layerTimeout time.Duration,
	log *logger.Logger,
) *ResolverService {
	return &ResolverService{
		dealershipRepo: dealershipRepo,
		roleRepo:       roleRepo,
		catalogSvc:     catalogSvc,
		memCache:       memCache,
		redisCache:     redisCache,
		resolver:       access.NewResolver(),
		logger:         log.With("service", "resolver"),
		layerTimeout:   layerTimeout,
	}
}

func cacheKey(dealershipID, userID shared.ID) string {
	return fmt.Sprintf("%s:%s", dealershipID, userID)
}

// Resolve returns the user's effective permission set within the
// dealership. Any layer failure surfaces as access.ErrDataUnavailable;
// no partial or guessed result is ever returned.
func (s *ResolverService) Resolve(ctx context.Context, dealershipID, userID shared.ID) (access.EffectiveSet, error) {
	start := time.Now()
	defer func() {
		metrics.ResolutionDuration.Observe(time.Since(start).Seconds())
	}()

	if set, ok := s.memCache.Get(dealershipID, userID); ok {
		metrics.ResolutionsTotal.WithLabelValues("memory_hit").Inc()
		return set, nil
	}

	key := cacheKey(dealershipID, userID)
	cached, err := s.redisCache.Get(ctx, key)
	if err == nil {
		s.memCache.Put(dealershipID, userID, *cached)
		metrics.ResolutionsTotal.WithLabelValues("redis_hit").Inc()
		return *cached, nil
	}
	if !errors.Is(err, redis.ErrCacheMiss) {
		// Redis being down does not block resolution; the database
		// fetch below still answers authoritatively.
		s.logger.Warn("redis cache read failed",
			"dealership_id", dealershipID.String(),
			"user_id", userID.String(),
			"error", err,
		)
	}

	set, err := s.compute(ctx, dealershipID, userID)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues("unavailable").Inc()
		return access.EffectiveSet{}, err
	}

	s.memCache.Put(dealershipID, userID, set)
	if err := s.redisCache.Set(ctx, key, set); err != nil {
		s.logger.Warn("redis cache write failed",
			"dealership_id", dealershipID.String(),
			"user_id", userID.String(),
			"error", err,
		)
	}

	metrics.ResolutionsTotal.WithLabelValues("computed").Inc()
	return set, nil
}

// compute fetches the three layers and runs the domain resolver.
func (s *ResolverService) compute(ctx context.Context, dealershipID, userID shared.ID) (access.EffectiveSet, error) {
	catalog, err := s.catalogSvc.Catalog(ctx)
	if err != nil {
		return access.EffectiveSet{}, fmt.Errorf("%w: catalog: %v", access.ErrDataUnavailable, err)
	}

	assignments, err := s.fetchAssignments(ctx, dealershipID, userID)
	if err != nil {
		return access.EffectiveSet{}, fmt.Errorf("%w: assignments: %v", access.ErrDataUnavailable, err)
	}
	if len(assignments) == 0 {
		return s.resolver.Resolve(access.Snapshot{
			DealershipID: dealershipID,
			UserID:       userID,
			Catalog:      catalog,
		}), nil
	}

	roleIDs := make([]shared.ID, len(assignments))
	for i, a := range assignments {
		roleIDs[i] = a.RoleID
	}

	var (
		grants     []dealership.ModuleGrant
		gatesByID  map[shared.ID][]role.ModuleGate
		grantsByID map[shared.ID][]role.Grant
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		grants, err = fetchLayer(gctx, s.layerTimeout, "module_grants", func(ctx context.Context) ([]dealership.ModuleGrant, error) {
			return s.dealershipRepo.ListModuleGrants(ctx, dealershipID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		gatesByID, err = fetchLayer(gctx, s.layerTimeout, "role_gates", func(ctx context.Context) (map[shared.ID][]role.ModuleGate, error) {
			return s.roleRepo.ListModuleGatesBatch(ctx, roleIDs)
		})
		return err
	})
	g.Go(func() error {
		var err error
		grantsByID, err = fetchLayer(gctx, s.layerTimeout, "role_grants", func(ctx context.Context) (map[shared.ID][]role.Grant, error) {
			return s.roleRepo.ListGrantsBatch(ctx, roleIDs)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("layer fetch failed",
			"dealership_id", dealershipID.String(),
			"user_id", userID.String(),
			"error", err,
		)
		return access.EffectiveSet{}, fmt.Errorf("%w: %v", access.ErrDataUnavailable, err)
	}

	roles := make([]access.RoleSnapshot, len(roleIDs))
	for i, roleID := range roleIDs {
		roles[i] = access.RoleSnapshot{
			RoleID: roleID,
			Gates:  role.GateMap(gatesByID[roleID]),
			Grants: grantActions(grantsByID[roleID]),
		}
	}

	snapshot := access.Snapshot{
		DealershipID: dealershipID,
		UserID:       userID,
		ModuleGrants: dealership.GrantMap(grants),
		Roles:        roles,
		Catalog:      catalog,
	}
	return s.resolver.Resolve(snapshot), nil
}

func (s *ResolverService) fetchAssignments(ctx context.Context, dealershipID, userID shared.ID) ([]role.Assignment, error) {
	return fetchLayer(ctx, s.layerTimeout, "assignments", func(ctx context.Context) ([]role.Assignment, error) {
		return s.roleRepo.ListActiveAssignments(ctx, userID, dealershipID)
	})
}

// fetchLayer runs one layer fetch under its own deadline and records
// its duration.
func fetchLayer[T any](ctx context.Context, timeout time.Duration, layer string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := fn(ctx)
	metrics.LayerFetchDuration.WithLabelValues(layer).Observe(time.Since(start).Seconds())
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %w", layer, err)
	}
	return result, nil
}

// InvalidateUser drops cached sets for one user in one dealership.
func (s *ResolverService) InvalidateUser(ctx context.Context, dealershipID, userID shared.ID) {
	s.memCache.Invalidate(dealershipID, userID)
	if err := s.redisCache.Delete(ctx, cacheKey(dealershipID, userID)); err != nil {
		s.logger.Warn("redis invalidation failed",
			"dealership_id", dealershipID.String(),
			"user_id", userID.String(),
			"error", err,
		)
	}
	metrics.InvalidationsTotal.WithLabelValues("user").Inc()
}

// InvalidateDealership drops cached sets for every user of a dealership.
func (s *ResolverService) InvalidateDealership(ctx context.Context, dealershipID shared.ID) {
	s.memCache.InvalidateDealership(dealershipID)
	if err := s.redisCache.DeletePattern(ctx, dealershipID.String()+":*"); err != nil {
		s.logger.Warn("redis dealership invalidation failed",
			"dealership_id", dealershipID.String(),
			"error", err,
		)
	}
	metrics.InvalidationsTotal.WithLabelValues("dealership").Inc()
}

// InvalidateAll drops every cached set across all dealerships.
func (s *ResolverService) InvalidateAll(ctx context.Context) {
	s.memCache.InvalidateAll()
	if err := s.redisCache.DeletePattern(ctx, "*"); err != nil {
		s.logger.Warn("redis full invalidation failed", "error", err)
	}
	metrics.InvalidationsTotal.WithLabelValues("all").Inc()
}

func grantActions(grants []role.Grant) []permission.Action {
	actions := make([]permission.Action, len(grants))
	for i, g := range grants {
		actions[i] = g.Action
	}
	return actions
}
