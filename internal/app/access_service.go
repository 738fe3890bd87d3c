package app

import (
	"context"
	"fmt"
	"time"

	"github.com/mydetailarea/access/pkg/domain/dealership"
	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/role"
	"github.com/mydetailarea/access/pkg/domain/shared"
	"github.com/mydetailarea/access/pkg/logger"
)

// Invalidator drops cached effective sets after a mutation.
type Invalidator interface {
	InvalidateUser(ctx context.Context, dealershipID, userID shared.ID)
	InvalidateDealership(ctx context.Context, dealershipID shared.ID)
}

// AccessService carries the admin mutations: dealership module
// provisioning, role lifecycle, gates, grants, and assignments. Every
// mutation invalidates the affected cache entries before returning, so
// the next resolution sees the change.
//
// Dealership-level changes invalidate the whole tenant. Role-level
// changes invalidate the role's current members; when the member list
// cannot be read the service falls back to a dealership-wide
// invalidation rather than leaving entries stale.
type AccessService struct {
	dealershipRepo dealership.Repository
	roleRepo       role.Repository
	catalogSvc     *CatalogService
	invalidator    Invalidator
	logger         *logger.Logger
}

// NewAccessService creates an access service.
func NewAccessService(
	dealershipRepo dealership.Repository,
	roleRepo role.Repository,
	catalogSvc *CatalogService,
	invalidator Invalidator,
	log *logger.Logger,
) *AccessService {
	return &AccessService{
		dealershipRepo: dealershipRepo,
		roleRepo:       roleRepo,
		catalogSvc:     catalogSvc,
		invalidator:    invalidator,
		logger:         log.With("service", "access"),
	}
}

// SetModuleGrant enables or disables a module for a dealership.
// Platform operator surface; tenants cannot provision themselves.
func (s *AccessService) SetModuleGrant(ctx context.Context, dealershipID shared.ID, m module.Module, enabled bool, actor shared.ID) error {
	if !m.IsValid() {
		return fmt.Errorf("%w: unknown module %q", shared.ErrValidation, m)
	}
	if _, err := s.dealershipRepo.GetByID(ctx, dealershipID); err != nil {
		return err
	}

	err := s.dealershipRepo.SetModuleGrant(ctx, dealership.ModuleGrant{
		DealershipID: dealershipID,
		Module:       m,
		Enabled:      enabled,
		UpdatedAt:    time.Now().UTC(),
		UpdatedBy:    actor,
	})
	if err != nil {
		return err
	}

	s.invalidator.InvalidateDealership(ctx, dealershipID)
	s.logger.Info("module grant updated",
		"dealership_id", dealershipID.String(),
		"module", m.String(),
		"enabled", enabled,
	)
	return nil
}

// CreateRole creates a role in a dealership.
func (s *AccessService) CreateRole(ctx context.Context, dealershipID shared.ID, name, description string) (*role.Role, error) {
	if _, err := s.dealershipRepo.GetByID(ctx, dealershipID); err != nil {
		return nil, err
	}

	r, err := role.NewRole(dealershipID, name, description)
	if err != nil {
		return nil, err
	}
	if err := s.roleRepo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("role created",
		"dealership_id", dealershipID.String(),
		"role_id", r.ID().String(),
		"name", r.Name(),
	)
	return r, nil
}

// DeactivateRole soft-deletes a role. Members lose its permissions on
// their next resolution; grants and gates stay stored.
func (s *AccessService) DeactivateRole(ctx context.Context, roleID shared.ID) error {
	r, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	r.Deactivate()
	if err := s.roleRepo.Update(ctx, r); err != nil {
		return err
	}

	s.invalidateRoleMembers(ctx, r)
	s.logger.Info("role deactivated", "role_id", roleID.String())
	return nil
}

// SetModuleGate opens or closes a role's gate for a module. Closing is
// non-destructive; the role's grants in that module go dormant and come
// back when the gate reopens.
func (s *AccessService) SetModuleGate(ctx context.Context, roleID shared.ID, m module.Module, enabled bool, actor shared.ID) error {
	if !m.IsValid() {
		return fmt.Errorf("%w: unknown module %q", shared.ErrValidation, m)
	}
	r, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return err
	}

	err = s.roleRepo.SetModuleGate(ctx, role.ModuleGate{
		RoleID:    roleID,
		Module:    m,
		Enabled:   enabled,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: actor,
	})
	if err != nil {
		return err
	}

	s.invalidateRoleMembers(ctx, r)
	s.logger.Info("module gate updated",
		"role_id", roleID.String(),
		"module", m.String(),
		"enabled", enabled,
	)
	return nil
}

// GrantAction grants a catalog action to a role. Actions outside the
// catalog are rejected; nothing ungrantable can be stored.
func (s *AccessService) GrantAction(ctx context.Context, roleID shared.ID, action permission.Action, actor shared.ID) error {
	catalog, err := s.catalogSvc.Catalog(ctx)
	if err != nil {
		return err
	}
	if !catalog.Contains(action) {
		return fmt.Errorf("%w: unknown action %q", shared.ErrValidation, action)
	}
	r, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return err
	}

	err = s.roleRepo.AddGrant(ctx, role.Grant{
		RoleID:    roleID,
		Action:    action,
		GrantedAt: time.Now().UTC(),
		GrantedBy: actor,
	})
	if err != nil {
		return err
	}

	s.invalidateRoleMembers(ctx, r)
	s.logger.Info("action granted",
		"role_id", roleID.String(),
		"action", action.String(),
	)
	return nil
}

// RevokeAction removes a grant from a role.
func (s *AccessService) RevokeAction(ctx context.Context, roleID shared.ID, action permission.Action) error {
	r, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.roleRepo.RemoveGrant(ctx, roleID, action); err != nil {
		return err
	}

	s.invalidateRoleMembers(ctx, r)
	s.logger.Info("action revoked",
		"role_id", roleID.String(),
		"action", action.String(),
	)
	return nil
}

// AssignRole gives a user a role within a dealership.
func (s *AccessService) AssignRole(ctx context.Context, userID, dealershipID, roleID shared.ID, actor shared.ID) error {
	r, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return err
	}
	if !r.DealershipID().Equals(dealershipID) {
		return fmt.Errorf("%w: role belongs to another dealership", shared.ErrValidation)
	}

	err = s.roleRepo.Assign(ctx, role.Assignment{
		ID:           shared.NewID(),
		UserID:       userID,
		DealershipID: dealershipID,
		RoleID:       roleID,
		Active:       true,
		AssignedAt:   time.Now().UTC(),
		AssignedBy:   actor,
	})
	if err != nil {
		return err
	}

	s.invalidator.InvalidateUser(ctx, dealershipID, userID)
	s.logger.Info("role assigned",
		"dealership_id", dealershipID.String(),
		"user_id", userID.String(),
		"role_id", roleID.String(),
	)
	return nil
}

// RemoveRole takes a role away from a user.
func (s *AccessService) RemoveRole(ctx context.Context, userID, dealershipID, roleID shared.ID) error {
	if err := s.roleRepo.Unassign(ctx, userID, dealershipID, roleID); err != nil {
		return err
	}

	s.invalidator.InvalidateUser(ctx, dealershipID, userID)
	s.logger.Info("role removed",
		"dealership_id", dealershipID.String(),
		"user_id", userID.String(),
		"role_id", roleID.String(),
	)
	return nil
}

// invalidateRoleMembers drops cached sets for everyone holding the
// role, widening to the whole dealership when the member list cannot be
// read.
func (s *AccessService) invalidateRoleMembers(ctx context.Context, r *role.Role) {
	members, err := s.roleRepo.ListMemberIDs(ctx, r.ID())
	if err != nil {
		s.logger.Warn("member lookup failed, invalidating whole dealership",
			"role_id", r.ID().String(),
			"error", err,
		)
		s.invalidator.InvalidateDealership(ctx, r.DealershipID())
		return
	}
	for _, userID := range members {
		s.invalidator.InvalidateUser(ctx, r.DealershipID(), userID)
	}
}
