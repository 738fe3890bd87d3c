package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mydetailarea/access/internal/app"
	"github.com/mydetailarea/access/pkg/domain/module"
	"github.com/mydetailarea/access/pkg/domain/permission"
	"github.com/mydetailarea/access/pkg/logger"
)

// AccessHandler serves permission resolution and catalog reads.
type AccessHandler struct {
	resolverSvc *app.ResolverService
	catalogSvc  *app.CatalogService
	logger      *logger.Logger
}

// NewAccessHandler creates an access handler.
func NewAccessHandler(resolverSvc *app.ResolverService, catalogSvc *app.CatalogService, log *logger.Logger) *AccessHandler {
	return &AccessHandler{
		resolverSvc: resolverSvc,
		catalogSvc:  catalogSvc,
		logger:      log.With("handler", "access"),
	}
}

type permissionsResponse struct {
	DealershipID string   `json:"dealership_id"`
	UserID       string   `json:"user_id"`
	Actions      []string `json:"actions"`
}

// GetUserPermissions resolves a user's effective permission set.
// GET /api/v1/dealerships/{dealershipID}/users/{userID}/permissions
func (h *AccessHandler) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
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

	set, err := h.resolverSvc.Resolve(r.Context(), dealershipID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, permissionsResponse{
		DealershipID: dealershipID.String(),
		UserID:       userID.String(),
		Actions:      permission.ToStrings(set.Actions()),
	})
}

type catalogEntry struct {
	Module        string   `json:"module"`
	Action        string   `json:"action"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// GetCatalog returns the validated permission catalog.
// GET /api/v1/catalog
func (h *AccessHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.catalogSvc.Catalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries := make([]catalogEntry, 0, catalog.Len())
	for _, action := range catalog.Actions() {
		def, _ := catalog.Lookup(action)
		entries = append(entries, catalogEntry{
			Module:        def.Module.String(),
			Action:        def.Action.String(),
			Prerequisites: permission.ToStrings(def.Prerequisites),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"catalog": entries})
}

// GetModules returns the closed module set.
// GET /api/v1/catalog/modules
func (h *AccessHandler) GetModules(w http.ResponseWriter, r *http.Request) {
	modules := module.All()
	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": names})
}
