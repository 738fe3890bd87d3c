package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mydetailarea/access/internal/app"
	"github.com/mydetailarea/access/pkg/apierror"
	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/domain/shared"
	"github.com/mydetailarea/access/pkg/logger"
	"github.com/mydetailarea/access/pkg/validator"
)

// AdminHandler serves the operator mutations: module provisioning, role
// lifecycle, gates, grants, assignments, and cache flushes.
type AdminHandler struct {
	accessSvc   *app.AccessService
	resolverSvc *app.ResolverService
	validator   *validator.Validator
	logger      *logger.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(accessSvc *app.AccessService, resolverSvc *app.ResolverService, v *validator.Validator, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		accessSvc:   accessSvc,
		resolverSvc: resolverSvc,
		validator:   v,
		logger:      log.With("handler", "admin"),
	}
}

// actorID reads the acting operator from the X-Actor-ID header, zero
// when absent.
func actorID(r *http.Request) shared.ID {
	raw := r.Header.Get("X-Actor-ID")
	if raw == "" {
		return shared.ID{}
	}
	id, err := shared.ParseID(raw)
	if err != nil {
		return shared.ID{}
	}
	return id
}

func (h *AdminHandler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.BadRequest("Invalid request body")
	}
	return h.validator.Validate(dst)
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// SetModuleGrant enables or disables a module for a dealership.
// PUT /api/v1/dealerships/{dealershipID}/modules/{module}
func (h *AdminHandler) SetModuleGrant(w http.ResponseWriter, r *http.Request) {
	dealershipID, err := pathID(chi.URLParam(r, "dealershipID"), "dealership id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, ok := module.Parse(chi.URLParam(r, "module"))
	if !ok {
		writeError(w, r, apierror.BadRequest("Unknown module"))
		return
	}

	var req setEnabledRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accessSvc.SetModuleGrant(r.Context(), dealershipID, m, *req.Enabled, actorID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dealership_id": dealershipID.String(),
		"module":        m.String(),
		"enabled":       *req.Enabled,
	})
}

type createRoleRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// CreateRole creates a role within a dealership.
// POST /api/v1/dealerships/{dealershipID}/roles
func (h *AdminHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	dealershipID, err := pathID(chi.URLParam(r, "dealershipID"), "dealership id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req createRoleRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.accessSvc.CreateRole(r.Context(), dealershipID, req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            created.ID().String(),
		"dealership_id": created.DealershipID().String(),
		"name":          created.Name(),
		"description":   created.Description(),
		"active":        created.IsActive(),
	})
}

// DeactivateRole soft-deletes a role.
// DELETE /api/v1/roles/{roleID}
func (h *AdminHandler) DeactivateRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := pathID(chi.URLParam(r, "roleID"), "role id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accessSvc.DeactivateRole(r.Context(), roleID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetModuleGate opens or closes a role's module gate.
// PUT /api/v1/roles/{roleID}/gates/{module}
func (h *AdminHandler) SetModuleGate(w http.ResponseWriter, r *http.Request) {
	roleID, err := pathID(chi.URLParam(r, "roleID"), "role id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, ok := module.Parse(chi.URLParam(r, "module"))
	if !ok {
		writeError(w, r, apierror.BadRequest("Unknown module"))
		return
	}

	var req setEnabledRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accessSvc.SetModuleGate(r.Context(), roleID, m, *req.Enabled, actorID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"role_id": roleID.String(),
		"module":  m.String(),
		"enabled": *req.Enabled,
	})
}

type grantRequest struct {
	Action string `json:"action" validate:"required,action_key"`
}

// GrantAction grants a catalog action to a role.
// POST /api/v1/roles/{roleID}/grants
func (h *AdminHandler) GrantAction(w http.ResponseWriter, r *http.Request) {
	roleID, err := pathID(chi.URLParam(r, "roleID"), "role id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req grantRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accessSvc.GrantAction(r.Context(), roleID, permission.Action(req.Action), actorID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"role_id": roleID.String(),
		"action":  req.Action,
	})
}

// RevokeAction removes a grant from a role.
// DELETE /api/v1/roles/{roleID}/grants/{action}
func (h *AdminHandler) RevokeAction(w http.ResponseWriter, r *http.Request) {
	roleID, err := pathID(chi.URLParam(r, "roleID"), "role id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	action := permission.Action(chi.URLParam(r, "action"))

	if err := h.accessSvc.RevokeAction(r.Context(), roleID, action); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	RoleID string `json:"role_id" validate:"required,uuid"`
}

// AssignRole gives a user a role within a dealership.
// POST /api/v1/dealerships/{dealershipID}/users/{userID}/roles
func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	dealershipID, err := pathID(chi.URLParam(r, "dealershipID"), "dealership id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := pathID(chi.URLParam(r, "userID"), "user id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req assignRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	roleID, err := pathID(req.RoleID, "role id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accessSvc.AssignRole(r.Context(), userID, dealershipID, roleID, actorID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"dealership_id": dealershipID.String(),
		"user_id":       userID.String(),
		"role_id":       roleID.String(),
	})
}

// RemoveRole takes a role away from a user.
// DELETE /api/v1/dealerships/{dealershipID}/users/{userID}/roles/{roleID}
func (h *AdminHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	dealershipID, err := pathID(chi.URLParam(r, "dealershipID"), "dealership id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := pathID(chi.URLParam(r, "userID"), "user id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	roleID, err := pathID(chi.URLParam(r, "roleID"), "role id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.accessSvc.RemoveRole(r.Context(), userID, dealershipID, roleID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FlushCache drops every cached effective set.
// POST /api/v1/cache/flush
func (h *AdminHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	h.resolverSvc.InvalidateAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
