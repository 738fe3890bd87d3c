// Command seed loads the permission catalog and optional demo data.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mydetailarea/access/internal/app"
	"github.com/mydetailarea/access/internal/config"
	"github.com/mydetailarea/access/internal/infra/postgres"
	"github.com/mydetailarea/access/pkg/domain/dealership"
	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/role"
	"github.com/mydetailarea/access/pkg/domain/shared"
	"github.com/mydetailarea/access/pkg/logger"
)

func main() {
	demo := flag.Bool("demo", false, "Also create a demo dealership with roles and grants")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := logger.NewDefault()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	catalogRepo := postgres.NewCatalogRepository(db)
	catalogSvc := app.NewCatalogService(catalogRepo, cfg.Cache.CatalogTTL, log)

	defs := permission.DefaultDefinitions()
	if err := catalogSvc.Seed(ctx, defs); err != nil {
		log.Error("failed to seed catalog", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d catalog definitions\n", len(defs))

	if *demo {
		if err := seedDemo(ctx, db); err != nil {
			log.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		fmt.Println("Seeded demo dealership")
	}
}

// seedDemo creates a demo dealership with a seller and a manager role.
// Safe to rerun; the dealership is looked up by slug.
func seedDemo(ctx context.Context, db *postgres.DB) error {
	dealershipRepo := postgres.NewDealershipRepository(db)
	roleRepo := postgres.NewRoleRepository(db)

	d, err := dealershipRepo.GetBySlug(ctx, "demo-motors")
	if errors.Is(err, dealership.ErrDealershipNotFound) {
		d, err = dealership.NewDealership("Demo Motors", "demo-motors")
		if err != nil {
			return err
		}
		if err := dealershipRepo.Create(ctx, d); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, m := range []module.Module{
		module.Dashboard, module.SalesOrders, module.ServiceOrders,
		module.Contacts, module.Reports,
	} {
		err := dealershipRepo.SetModuleGrant(ctx, dealership.ModuleGrant{
			DealershipID: d.ID(),
			Module:       m,
			Enabled:      true,
			UpdatedAt:    now,
		})
		if err != nil {
			return err
		}
	}

	seller, err := createRole(ctx, roleRepo, d.ID(), "Seller", "Handles sales orders and contacts")
	if err != nil {
		return err
	}
	manager, err := createRole(ctx, roleRepo, d.ID(), "Sales Manager", "Full sales access including deletion and export")
	if err != nil {
		return err
	}

	sellerActions := []permission.Action{
		permission.DashboardView,
		permission.SalesOrdersView, permission.SalesOrdersCreate, permission.SalesOrdersEdit,
		permission.ContactsView, permission.ContactsCreate, permission.ContactsEdit,
	}
	managerActions := append(sellerActions,
		permission.SalesOrdersDelete,
		permission.ReportsView, permission.ReportsExport,
	)

	if err := grantAll(ctx, roleRepo, seller, sellerActions, now); err != nil {
		return err
	}
	return grantAll(ctx, roleRepo, manager, managerActions, now)
}

func createRole(ctx context.Context, repo role.Repository, dealershipID shared.ID, name, description string) (shared.ID, error) {
	existing, err := repo.ListForDealership(ctx, dealershipID)
	if err != nil {
		return shared.ID{}, err
	}
	for _, r := range existing {
		if r.Name() == name {
			return r.ID(), nil
		}
	}

	r, err := role.NewRole(dealershipID, name, description)
	if err != nil {
		return shared.ID{}, err
	}
	if err := repo.Create(ctx, r); err != nil {
		return shared.ID{}, err
	}
	return r.ID(), nil
}

func grantAll(ctx context.Context, repo role.Repository, roleID shared.ID, actions []permission.Action, at time.Time) error {
	for _, a := range actions {
		err := repo.AddGrant(ctx, role.Grant{
			RoleID:    roleID,
			Action:    a,
			GrantedAt: at,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
