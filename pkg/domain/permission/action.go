// Package permission defines the granular actions a role can be granted
// and the catalog that declares their prerequisite chains.
//
// Action keys follow a hierarchical convention:
//
//	{module}:{verb}
//
// Examples:
//   - sales_orders:view (see sales orders)
//   - sales_orders:edit (modify sales orders; requires view)
//   - reports:export (download reports; requires reports:view)
//
// The catalog is the single source of truth for which (module, action)
// pairs exist; anything outside it is never grantable.
package permission

import (
	"slices"
	"strings"

	"github.com/mydetailarea/access/pkg/domain/module"
)

// Action is a granular permission key.
type Action string

// String returns the string form of the action.
func (a Action) String() string {
	return string(a)
}

// Module returns the module prefix of the action key. The second return
// is false when the prefix is not part of the closed module set.
func (a Action) Module() (module.Module, bool) {
	key := string(a)
	idx := strings.IndexByte(key, ':')
	if idx <= 0 || idx == len(key)-1 {
		return "", false
	}
	return module.Parse(key[:idx])
}

// Dashboard actions.
const (
	DashboardView Action = "dashboard:view"
)

// Sales order actions.
const (
	SalesOrdersView   Action = "sales_orders:view"
	SalesOrdersCreate Action = "sales_orders:create"
	SalesOrdersEdit   Action = "sales_orders:edit"
	SalesOrdersDelete Action = "sales_orders:delete"
)

// Service order actions.
const (
	ServiceOrdersView   Action = "service_orders:view"
	ServiceOrdersCreate Action = "service_orders:create"
	ServiceOrdersEdit   Action = "service_orders:edit"
	ServiceOrdersDelete Action = "service_orders:delete"
)

// Recon order actions.
const (
	ReconOrdersView   Action = "recon_orders:view"
	ReconOrdersCreate Action = "recon_orders:create"
	ReconOrdersEdit   Action = "recon_orders:edit"
	ReconOrdersDelete Action = "recon_orders:delete"
)

// Car wash actions.
const (
	CarWashView   Action = "car_wash:view"
	CarWashCreate Action = "car_wash:create"
	CarWashEdit   Action = "car_wash:edit"
	CarWashDelete Action = "car_wash:delete"
)

// Stock actions.
const (
	StockView   Action = "stock:view"
	StockManage Action = "stock:manage"
)

// Contact actions.
const (
	ContactsView   Action = "contacts:view"
	ContactsCreate Action = "contacts:create"
	ContactsEdit   Action = "contacts:edit"
	ContactsDelete Action = "contacts:delete"
)

// Chat actions.
const (
	ChatView Action = "chat:view"
	ChatSend Action = "chat:send"
)

// Report actions.
const (
	ReportsView   Action = "reports:view"
	ReportsExport Action = "reports:export"
)

// Settings actions.
const (
	SettingsView   Action = "settings:view"
	SettingsManage Action = "settings:manage"
)

// Detail Hub (time clock) actions.
const (
	DetailHubView   Action = "detail_hub:view"
	DetailHubPunch  Action = "detail_hub:punch"
	DetailHubManage Action = "detail_hub:manage"
)

// Productivity actions.
const (
	ProductivityView   Action = "productivity:view"
	ProductivityCreate Action = "productivity:create"
	ProductivityEdit   Action = "productivity:edit"
	ProductivityDelete Action = "productivity:delete"
)

// User management actions.
const (
	UsersView   Action = "users:view"
	UsersInvite Action = "users:invite"
	UsersEdit   Action = "users:edit"
	UsersDelete Action = "users:delete"
)

// Dealership administration actions.
const (
	DealershipsView   Action = "dealerships:view"
	DealershipsManage Action = "dealerships:manage"
)

// Contains reports whether actions contains target.
func Contains(actions []Action, target Action) bool {
	return slices.Contains(actions, target)
}

// ToStrings converts a slice of actions to strings.
func ToStrings(actions []Action) []string {
	result := make([]string, len(actions))
	for i, a := range actions {
		result[i] = a.String()
	}
	return result
}

// FromStrings converts strings to actions, skipping any key that is not
// in the default catalog. Historical grants may reference actions that
// were since removed; those read as not-granted.
func FromStrings(strs []string) []Action {
	catalog := DefaultCatalog()
	result := make([]Action, 0, len(strs))
	for _, s := range strs {
		a := Action(s)
		if catalog.Contains(a) {
			result = append(result, a)
		}
	}
	return result
}
