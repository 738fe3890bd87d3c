package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
)

// CatalogRepository stores permission definitions in PostgreSQL.
// Definitions are validated by the catalog service on load, not here;
// the store holds whatever the operator seeded.
type CatalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// List returns every stored definition.
func (r *CatalogRepository) List(ctx context.Context) ([]permission.Definition, error) {
	query := `
		SELECT module, action, prerequisites
		FROM permission_definitions
		ORDER BY action
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission definitions: %w", err)
	}
	defer rows.Close()

	var defs []permission.Definition
	for rows.Next() {
		var (
			mod     string
			action  string
			prereqs pq.StringArray
		)
		if err := rows.Scan(&mod, &action, &prereqs); err != nil {
			return nil, fmt.Errorf("failed to scan permission definition: %w", err)
		}

		def := permission.Definition{
			Module: module.Module(mod),
			Action: permission.Action(action),
		}
		for _, p := range prereqs {
			def.Prerequisites = append(def.Prerequisites, permission.Action(p))
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// Upsert writes definitions, replacing prerequisite lists of existing
// actions. Runs in one transaction so a partially seeded catalog never
// becomes visible.
func (r *CatalogRepository) Upsert(ctx context.Context, defs []permission.Definition) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO permission_definitions (module, action, prerequisites)
			VALUES ($1, $2, $3)
			ON CONFLICT (action)
			DO UPDATE SET module = EXCLUDED.module,
			              prerequisites = EXCLUDED.prerequisites
		`

		for _, def := range defs {
			prereqs := make([]string, len(def.Prerequisites))
			for i, p := range def.Prerequisites {
				prereqs[i] = p.String()
			}
			if _, err := tx.ExecContext(ctx, query,
				def.Module.String(),
				def.Action.String(),
				pq.Array(prereqs),
			); err != nil {
				return fmt.Errorf("failed to upsert definition %s: %w", def.Action, err)
			}
		}
		return nil
	})
}

// Delete removes a definition.
func (r *CatalogRepository) Delete(ctx context.Context, action permission.Action) error {
	query := `DELETE FROM permission_definitions WHERE action = $1`

	_, err := r.db.ExecContext(ctx, query, action.String())
	if err != nil {
		return fmt.Errorf("failed to delete definition: %w", err)
	}
	return nil
}
