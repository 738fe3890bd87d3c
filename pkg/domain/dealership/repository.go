package dealership

import (
	"context"

	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

// Repository persists dealerships and their module grants.
type Repository interface {
	Create(ctx context.Context, d *Dealership) error
	GetByID(ctx context.Context, id shared.ID) (*Dealership, error)
	GetBySlug(ctx context.Context, slug string) (*Dealership, error)
	List(ctx context.Context) ([]*Dealership, error)
	Update(ctx context.Context, d *Dealership) error

	// ListModuleGrants returns the explicit grant rows for a dealership.
	// Modules without a row are disabled.
	ListModuleGrants(ctx context.Context, dealershipID shared.ID) ([]ModuleGrant, error)

	// SetModuleGrant upserts a grant row.
	SetModuleGrant(ctx context.Context, grant ModuleGrant) error

	// RemoveModuleGrant deletes the row, returning the module to the
	// disabled default.
	RemoveModuleGrant(ctx context.Context, dealershipID shared.ID, m module.Module) error
}
