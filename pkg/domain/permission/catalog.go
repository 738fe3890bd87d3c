package permission

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mydetailarea/access/pkg/domain/module"
)

// Definition declares one grantable action: the module it belongs to and
// the actions that must also resolve for it to take effect.
type Definition struct {
	Module        module.Module `json:"module"`
	Action        Action        `json:"action"`
	Prerequisites []Action      `json:"prerequisites,omitempty"`
}

// InvalidReason classifies why a definition was excluded from a catalog.
type InvalidReason string

const (
	ReasonUnknownModule       InvalidReason = "unknown_module"
	ReasonModuleMismatch      InvalidReason = "module_mismatch"
	ReasonDuplicateAction     InvalidReason = "duplicate_action"
	ReasonUnknownPrerequisite InvalidReason = "unknown_prerequisite"
	ReasonPrerequisiteCycle   InvalidReason = "prerequisite_cycle"
)

// Invalid reports a definition excluded at catalog build time.
type Invalid struct {
	Definition Definition
	Reason     InvalidReason
	Detail     string
}

func (i Invalid) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Definition.Action, i.Reason, i.Detail)
}

// Catalog is a validated, immutable set of action definitions. Every
// prerequisite referenced by a catalog entry is itself a catalog entry,
// and prerequisite chains are acyclic.
type Catalog struct {
	byAction map[Action]Definition
	ordered  []Action
}

// Build validates definitions and assembles a catalog. Entries that do
// not validate are excluded rather than failing the build: a bad row in
// the catalog store must not take down resolution for everything else.
// Excluded entries are returned so the caller can log them.
func Build(defs []Definition) (*Catalog, []Invalid) {
	var invalid []Invalid
	byAction := make(map[Action]Definition, len(defs))

	for _, def := range defs {
		if !def.Module.IsValid() {
			invalid = append(invalid, Invalid{def, ReasonUnknownModule, string(def.Module)})
			continue
		}
		m, ok := def.Action.Module()
		if !ok || m != def.Module {
			invalid = append(invalid, Invalid{def, ReasonModuleMismatch,
				fmt.Sprintf("action %q does not belong to module %q", def.Action, def.Module)})
			continue
		}
		if _, exists := byAction[def.Action]; exists {
			invalid = append(invalid, Invalid{def, ReasonDuplicateAction, string(def.Action)})
			continue
		}
		byAction[def.Action] = def
	}

	// Prerequisites must reference surviving entries. Removing an entry
	// can orphan others, so iterate until stable.
	for {
		removed := false
		for action, def := range byAction {
			for _, prereq := range def.Prerequisites {
				if _, ok := byAction[prereq]; !ok {
					invalid = append(invalid, Invalid{def, ReasonUnknownPrerequisite, string(prereq)})
					delete(byAction, action)
					removed = true
					break
				}
			}
		}
		if !removed {
			break
		}
	}

	for _, action := range cyclicActions(byAction) {
		invalid = append(invalid, Invalid{byAction[action], ReasonPrerequisiteCycle, string(action)})
		delete(byAction, action)
	}

	ordered := make([]Action, 0, len(byAction))
	for action := range byAction {
		ordered = append(ordered, action)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	return &Catalog{byAction: byAction, ordered: ordered}, invalid
}

// cyclicActions returns every action that participates in or depends on
// a prerequisite cycle.
func cyclicActions(byAction map[Action]Definition) []Action {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[Action]int, len(byAction))
	var cyclic []Action

	var visit func(Action) bool
	visit = func(a Action) bool {
		switch state[a] {
		case visiting:
			return true
		case done:
			return false
		}
		state[a] = visiting
		bad := false
		for _, prereq := range byAction[a].Prerequisites {
			if visit(prereq) {
				bad = true
			}
		}
		state[a] = done
		if bad {
			cyclic = append(cyclic, a)
		}
		return bad
	}

	for action := range byAction {
		visit(action)
	}
	sort.Slice(cyclic, func(i, j int) bool { return cyclic[i] < cyclic[j] })
	return cyclic
}

// Contains reports whether the action is defined in the catalog.
func (c *Catalog) Contains(a Action) bool {
	_, ok := c.byAction[a]
	return ok
}

// Lookup returns the definition for an action.
func (c *Catalog) Lookup(a Action) (Definition, bool) {
	def, ok := c.byAction[a]
	return def, ok
}

// Prerequisites returns the direct prerequisites of an action, or nil
// when the action is not in the catalog.
func (c *Catalog) Prerequisites(a Action) []Action {
	def, ok := c.byAction[a]
	if !ok {
		return nil
	}
	return def.Prerequisites
}

// Actions returns every defined action in stable sorted order.
func (c *Catalog) Actions() []Action {
	out := make([]Action, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// ForModule returns the actions defined for a module, sorted.
func (c *Catalog) ForModule(m module.Module) []Action {
	var out []Action
	for _, action := range c.ordered {
		if am, _ := action.Module(); am == m {
			out = append(out, action)
		}
	}
	return out
}

// Len returns the number of defined actions.
func (c *Catalog) Len() int {
	return len(c.byAction)
}

// DefaultDefinitions returns the built-in action catalog. The verb
// conventions are uniform: create and edit require view, delete requires
// view and edit, export and manage require view.
func DefaultDefinitions() []Definition {
	crud := func(m module.Module, view, create, edit, del Action) []Definition {
		return []Definition{
			{Module: m, Action: view},
			{Module: m, Action: create, Prerequisites: []Action{view}},
			{Module: m, Action: edit, Prerequisites: []Action{view}},
			{Module: m, Action: del, Prerequisites: []Action{view, edit}},
		}
	}

	defs := []Definition{
		{Module: module.Dashboard, Action: DashboardView},
	}
	defs = append(defs, crud(module.SalesOrders, SalesOrdersView, SalesOrdersCreate, SalesOrdersEdit, SalesOrdersDelete)...)
	defs = append(defs, crud(module.ServiceOrders, ServiceOrdersView, ServiceOrdersCreate, ServiceOrdersEdit, ServiceOrdersDelete)...)
	defs = append(defs, crud(module.ReconOrders, ReconOrdersView, ReconOrdersCreate, ReconOrdersEdit, ReconOrdersDelete)...)
	defs = append(defs, crud(module.CarWash, CarWashView, CarWashCreate, CarWashEdit, CarWashDelete)...)
	defs = append(defs, crud(module.Contacts, ContactsView, ContactsCreate, ContactsEdit, ContactsDelete)...)
	defs = append(defs, crud(module.Productivity, ProductivityView, ProductivityCreate, ProductivityEdit, ProductivityDelete)...)
	defs = append(defs,
		Definition{Module: module.Stock, Action: StockView},
		Definition{Module: module.Stock, Action: StockManage, Prerequisites: []Action{StockView}},
		Definition{Module: module.Chat, Action: ChatView},
		Definition{Module: module.Chat, Action: ChatSend, Prerequisites: []Action{ChatView}},
		Definition{Module: module.Reports, Action: ReportsView},
		Definition{Module: module.Reports, Action: ReportsExport, Prerequisites: []Action{ReportsView}},
		Definition{Module: module.Settings, Action: SettingsView},
		Definition{Module: module.Settings, Action: SettingsManage, Prerequisites: []Action{SettingsView}},
		Definition{Module: module.DetailHub, Action: DetailHubView},
		Definition{Module: module.DetailHub, Action: DetailHubPunch, Prerequisites: []Action{DetailHubView}},
		Definition{Module: module.DetailHub, Action: DetailHubManage, Prerequisites: []Action{DetailHubView}},
		Definition{Module: module.Users, Action: UsersView},
		Definition{Module: module.Users, Action: UsersInvite, Prerequisites: []Action{UsersView}},
		Definition{Module: module.Users, Action: UsersEdit, Prerequisites: []Action{UsersView}},
		Definition{Module: module.Users, Action: UsersDelete, Prerequisites: []Action{UsersView, UsersEdit}},
		Definition{Module: module.Dealerships, Action: DealershipsView},
		Definition{Module: module.Dealerships, Action: DealershipsManage, Prerequisites: []Action{DealershipsView}},
	)
	return defs
}

var (
	defaultCatalogOnce sync.Once
	defaultCatalog     *Catalog
)

// DefaultCatalog returns the catalog built from DefaultDefinitions.
// The built-in definitions always validate, so this never drops entries.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, _ = Build(DefaultDefinitions())
	})
	return defaultCatalog
}
