// Package app wires the domain core to storage, caching, and transport.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/logger"
)

// CatalogStore loads and persists permission definitions.
type CatalogStore interface {
	List(ctx context.Context) ([]permission.Definition, error)
	Upsert(ctx context.Context, defs []permission.Definition) error
}

// CatalogService serves the validated permission catalog. Definitions
// are re-read from the store after the TTL elapses; malformed entries
// are excluded at build time and logged. When the store is unreachable
// a previously loaded catalog keeps being served, stale beats empty for
// a read-only artifact like this.
type CatalogService struct {
	store  CatalogStore
	logger *logger.Logger
	ttl    time.Duration

	mu       sync.RWMutex
	catalog  *permission.Catalog
	loadedAt time.Time
}

// NewCatalogService creates a catalog service.
func NewCatalogService(store CatalogStore, ttl time.Duration, log *logger.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		ttl:    ttl,
		logger: log.With("service", "catalog"),
	}
}

// Catalog returns the current validated catalog, reloading it from the
// store when the cached copy has aged out.
func (s *CatalogService) Catalog(ctx context.Context) (*permission.Catalog, error) {
	s.mu.RLock()
	if s.catalog != nil && time.Since(s.loadedAt) < s.ttl {
		catalog := s.catalog
		s.mu.RUnlock()
		return catalog, nil
	}
	s.mu.RUnlock()

	return s.Refresh(ctx)
}

// Refresh reloads the catalog from the store unconditionally.
func (s *CatalogService) Refresh(ctx context.Context) (*permission.Catalog, error) {
	defs, err := s.store.List(ctx)
	if err != nil {
		s.mu.RLock()
		stale := s.catalog
		s.mu.RUnlock()
		if stale != nil {
			s.logger.Warn("catalog reload failed, serving stale catalog",
				"error", err,
				"actions", stale.Len(),
			)
			return stale, nil
		}
		return nil, err
	}

	catalog, invalid := permission.Build(defs)
	for _, inv := range invalid {
		s.logger.Warn("excluding malformed catalog entry",
			"action", inv.Definition.Action.String(),
			"reason", string(inv.Reason),
			"detail", inv.Detail,
		)
	}

	s.mu.Lock()
	s.catalog = catalog
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug("catalog loaded",
		"actions", catalog.Len(),
		"excluded", len(invalid),
	)
	return catalog, nil
}

// Seed writes definitions to the store and refreshes the served catalog.
func (s *CatalogService) Seed(ctx context.Context, defs []permission.Definition) error {
	if err := s.store.Upsert(ctx, defs); err != nil {
		return err
	}
	_, err := s.Refresh(ctx)
	return err
}
