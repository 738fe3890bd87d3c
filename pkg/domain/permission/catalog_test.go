package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydetailarea/access/pkg/domain/module"
)

func TestBuild(t *testing.T) {
	t.Run("valid definitions survive", func(t *testing.T) {
		catalog, invalid := Build([]Definition{
			{Module: module.SalesOrders, Action: SalesOrdersView},
			{Module: module.SalesOrders, Action: SalesOrdersEdit, Prerequisites: []Action{SalesOrdersView}},
		})
		assert.Empty(t, invalid)
		assert.Equal(t, 2, catalog.Len())
		assert.True(t, catalog.Contains(SalesOrdersEdit))
	})

	t.Run("unknown module excluded", func(t *testing.T) {
		catalog, invalid := Build([]Definition{
			{Module: "telemetry", Action: "telemetry:view"},
			{Module: module.Chat, Action: ChatView},
		})
		require.Len(t, invalid, 1)
		assert.Equal(t, ReasonUnknownModule, invalid[0].Reason)
		assert.Equal(t, 1, catalog.Len())
	})

	t.Run("action key must match module", func(t *testing.T) {
		_, invalid := Build([]Definition{
			{Module: module.Chat, Action: SalesOrdersView},
		})
		require.Len(t, invalid, 1)
		assert.Equal(t, ReasonModuleMismatch, invalid[0].Reason)
	})

	t.Run("duplicate action excluded", func(t *testing.T) {
		catalog, invalid := Build([]Definition{
			{Module: module.Chat, Action: ChatView},
			{Module: module.Chat, Action: ChatView},
		})
		require.Len(t, invalid, 1)
		assert.Equal(t, ReasonDuplicateAction, invalid[0].Reason)
		assert.Equal(t, 1, catalog.Len())
	})

	t.Run("unknown prerequisite excludes the entry not the build", func(t *testing.T) {
		catalog, invalid := Build([]Definition{
			{Module: module.Reports, Action: ReportsView},
			{Module: module.Reports, Action: ReportsExport, Prerequisites: []Action{"reports:archive"}},
		})
		require.Len(t, invalid, 1)
		assert.Equal(t, ReasonUnknownPrerequisite, invalid[0].Reason)
		assert.True(t, catalog.Contains(ReportsView))
		assert.False(t, catalog.Contains(ReportsExport))
	})

	t.Run("exclusion cascades to dependents", func(t *testing.T) {
		catalog, invalid := Build([]Definition{
			{Module: module.SalesOrders, Action: SalesOrdersEdit, Prerequisites: []Action{SalesOrdersView}},
			{Module: module.SalesOrders, Action: SalesOrdersDelete, Prerequisites: []Action{SalesOrdersView, SalesOrdersEdit}},
		})
		// view is missing entirely, so edit falls, then delete falls with it
		assert.Len(t, invalid, 2)
		assert.Equal(t, 0, catalog.Len())
	})

	t.Run("prerequisite cycle excluded", func(t *testing.T) {
		catalog, invalid := Build([]Definition{
			{Module: module.Chat, Action: ChatView, Prerequisites: []Action{ChatSend}},
			{Module: module.Chat, Action: ChatSend, Prerequisites: []Action{ChatView}},
			{Module: module.Reports, Action: ReportsView},
		})
		require.Len(t, invalid, 2)
		for _, inv := range invalid {
			assert.Equal(t, ReasonPrerequisiteCycle, inv.Reason)
		}
		assert.Equal(t, 1, catalog.Len())
		assert.True(t, catalog.Contains(ReportsView))
	})
}

func TestDefaultCatalog(t *testing.T) {
	catalog, invalid := Build(DefaultDefinitions())
	require.Empty(t, invalid, "built-in definitions must always validate")

	t.Run("prerequisite chains", func(t *testing.T) {
		assert.Equal(t, []Action{SalesOrdersView}, catalog.Prerequisites(SalesOrdersEdit))
		assert.Equal(t, []Action{SalesOrdersView, SalesOrdersEdit}, catalog.Prerequisites(SalesOrdersDelete))
		assert.Equal(t, []Action{ReportsView}, catalog.Prerequisites(ReportsExport))
		assert.Empty(t, catalog.Prerequisites(DashboardView))
	})

	t.Run("for module", func(t *testing.T) {
		actions := catalog.ForModule(module.Stock)
		assert.Equal(t, []Action{StockManage, StockView}, actions)
	})

	t.Run("actions are sorted and copied", func(t *testing.T) {
		a := catalog.Actions()
		b := catalog.Actions()
		require.NotEmpty(t, a)
		a[0] = "mutated"
		assert.NotEqual(t, a[0], b[0])
	})
}

func TestActionModule(t *testing.T) {
	tests := []struct {
		action Action
		want   module.Module
		ok     bool
	}{
		{SalesOrdersView, module.SalesOrders, true},
		{ChatSend, module.Chat, true},
		{Action("bogus:view"), "", false},
		{Action("no_separator"), "", false},
		{Action(":view"), "", false},
		{Action("chat:"), "", false},
	}
	for _, tt := range tests {
		m, ok := tt.action.Module()
		assert.Equal(t, tt.ok, ok, "action %q", tt.action)
		if ok {
			assert.Equal(t, tt.want, m)
		}
	}
}

func TestFromStrings(t *testing.T) {
	actions := FromStrings([]string{
		"sales_orders:view",
		"legacy:approve",
		"chat:send",
	})
	assert.Equal(t, []Action{SalesOrdersView, ChatSend}, actions)
}
