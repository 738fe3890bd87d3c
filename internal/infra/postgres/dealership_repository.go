package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mydetailarea/access/pkg/domain/dealership"
	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/shared"
)

// DealershipRepository implements dealership.Repository using PostgreSQL.
type DealershipRepository struct {
	db *DB
}

// NewDealershipRepository creates a new DealershipRepository.
func NewDealershipRepository(db *DB) *DealershipRepository {
	return &DealershipRepository{db: db}
}

// Create persists a new dealership.
func (r *DealershipRepository) Create(ctx context.Context, d *dealership.Dealership) error {
	query := `
		INSERT INTO dealerships (id, name, slug, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ID().String(),
		d.Name(),
		d.Slug(),
		d.IsActive(),
		d.CreatedAt(),
		d.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return dealership.ErrDealershipExists
		}
		return fmt.Errorf("failed to create dealership: %w", err)
	}
	return nil
}

// GetByID retrieves a dealership by its ID.
func (r *DealershipRepository) GetByID(ctx context.Context, id shared.ID) (*dealership.Dealership, error) {
	query := `
		SELECT id, name, slug, active, created_at, updated_at
		FROM dealerships
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id.String()))
}

// GetBySlug retrieves a dealership by its slug.
func (r *DealershipRepository) GetBySlug(ctx context.Context, slug string) (*dealership.Dealership, error) {
	query := `
		SELECT id, name, slug, active, created_at, updated_at
		FROM dealerships
		WHERE slug = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, slug))
}

func (r *DealershipRepository) scanOne(row *sql.Row) (*dealership.Dealership, error) {
	var (
		id        string
		name      string
		slug      string
		active    bool
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&id, &name, &slug, &active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dealership.ErrDealershipNotFound
		}
		return nil, fmt.Errorf("failed to get dealership: %w", err)
	}

	parsedID, err := shared.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid dealership id %q: %w", id, err)
	}
	return dealership.Reconstruct(parsedID, name, slug, active, createdAt, updatedAt), nil
}

// List returns all dealerships.
func (r *DealershipRepository) List(ctx context.Context) ([]*dealership.Dealership, error) {
	query := `
		SELECT id, name, slug, active, created_at, updated_at
		FROM dealerships
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list dealerships: %w", err)
	}
	defer rows.Close()

	var result []*dealership.Dealership
	for rows.Next() {
		var (
			id        string
			name      string
			slug      string
			active    bool
			createdAt time.Time
			updatedAt time.Time
		)
		if err := rows.Scan(&id, &name, &slug, &active, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dealership: %w", err)
		}
		parsedID, err := shared.ParseID(id)
		if err != nil {
			return nil, fmt.Errorf("invalid dealership id %q: %w", id, err)
		}
		result = append(result, dealership.Reconstruct(parsedID, name, slug, active, createdAt, updatedAt))
	}
	return result, rows.Err()
}

// Update persists changes to a dealership.
func (r *DealershipRepository) Update(ctx context.Context, d *dealership.Dealership) error {
	query := `
		UPDATE dealerships
		SET name = $2, slug = $3, active = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		d.ID().String(),
		d.Name(),
		d.Slug(),
		d.IsActive(),
		d.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update dealership: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return dealership.ErrDealershipNotFound
	}
	return nil
}

// ListModuleGrants returns the explicit module grant rows for a
// dealership. Modules without a row are disabled.
func (r *DealershipRepository) ListModuleGrants(ctx context.Context, dealershipID shared.ID) ([]dealership.ModuleGrant, error) {
	query := `
		SELECT module, enabled, updated_at, updated_by
		FROM dealership_modules
		WHERE dealership_id = $1
		ORDER BY module
	`

	rows, err := r.db.QueryContext(ctx, query, dealershipID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list module grants: %w", err)
	}
	defer rows.Close()

	var grants []dealership.ModuleGrant
	for rows.Next() {
		var (
			mod       string
			enabled   bool
			updatedAt time.Time
			updatedBy sql.NullString
		)
		if err := rows.Scan(&mod, &enabled, &updatedAt, &updatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan module grant: %w", err)
		}
		grants = append(grants, dealership.ModuleGrant{
			DealershipID: dealershipID,
			Module:       module.Module(mod),
			Enabled:      enabled,
			UpdatedAt:    updatedAt,
			UpdatedBy:    parseNullID(updatedBy),
		})
	}
	return grants, rows.Err()
}

// SetModuleGrant upserts a module grant row.
func (r *DealershipRepository) SetModuleGrant(ctx context.Context, grant dealership.ModuleGrant) error {
	query := `
		INSERT INTO dealership_modules (dealership_id, module, enabled, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dealership_id, module)
		DO UPDATE SET enabled = EXCLUDED.enabled,
		              updated_at = EXCLUDED.updated_at,
		              updated_by = EXCLUDED.updated_by
	`

	_, err := r.db.ExecContext(ctx, query,
		grant.DealershipID.String(),
		grant.Module.String(),
		grant.Enabled,
		grant.UpdatedAt,
		nullIDValue(grant.UpdatedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to set module grant: %w", err)
	}
	return nil
}

// RemoveModuleGrant deletes a grant row, returning the module to the
// disabled default.
func (r *DealershipRepository) RemoveModuleGrant(ctx context.Context, dealershipID shared.ID, m module.Module) error {
	query := `DELETE FROM dealership_modules WHERE dealership_id = $1 AND module = $2`

	_, err := r.db.ExecContext(ctx, query, dealershipID.String(), m.String())
	if err != nil {
		return fmt.Errorf("failed to remove module grant: %w", err)
	}
	return nil
}
