// Package dealership holds the tenant entity and its module provisioning.
package dealership

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

var (
	ErrDealershipNotFound = errors.New("dealership not found")
	ErrDealershipExists   = errors.New("dealership already exists")
)

// Dealership is a tenant of the platform.
type Dealership struct {
	id        shared.ID
	name      string
	slug      string
	active    bool
	createdAt time.Time
	updatedAt time.Time
}

// NewDealership creates an active dealership.
func NewDealership(name, slug string) (*Dealership, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return nil, fmt.Errorf("%w: slug is required", shared.ErrValidation)
	}
	now := time.Now().UTC()
	return &Dealership{
		id:        shared.NewID(),
		name:      name,
		slug:      slug,
		active:    true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstruct rebuilds a dealership from stored state.
func Reconstruct(id shared.ID, name, slug string, active bool, createdAt, updatedAt time.Time) *Dealership {
	return &Dealership{
		id:        id,
		name:      name,
		slug:      slug,
		active:    active,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (d *Dealership) ID() shared.ID        { return d.id }
func (d *Dealership) Name() string         { return d.name }
func (d *Dealership) Slug() string         { return d.slug }
func (d *Dealership) IsActive() bool       { return d.active }
func (d *Dealership) CreatedAt() time.Time { return d.createdAt }
func (d *Dealership) UpdatedAt() time.Time { return d.updatedAt }

// Deactivate suspends the tenant.
func (d *Dealership) Deactivate() {
	d.active = false
	d.updatedAt = time.Now().UTC()
}

// ModuleGrant records whether a module is provisioned for a dealership.
// Modules with no grant row are disabled; provisioning is opt-in.
type ModuleGrant struct {
	DealershipID shared.ID     `json:"dealership_id"`
	Module       module.Module `json:"module"`
	Enabled      bool          `json:"enabled"`
	UpdatedAt    time.Time     `json:"updated_at"`
	UpdatedBy    shared.ID     `json:"updated_by"`
}

// GrantMap folds grant rows into the lookup form resolution consumes.
// Rows for modules outside the closed set are dropped.
func GrantMap(grants []ModuleGrant) map[module.Module]bool {
	out := make(map[module.Module]bool, len(grants))
	for _, g := range grants {
		if g.Module.IsValid() {
			out[g.Module] = g.Enabled
		}
	}
	return out
}
