// Package module defines the closed set of feature modules a dealership
// can have provisioned. The set is owned by the platform; tenants cannot
// extend it. Identifiers stored in historical data that no longer parse
// are treated as not-granted rather than as errors.
package module

import "slices"

// Module identifies a feature area of the platform.
type Module string

const (
	Dashboard     Module = "dashboard"
	SalesOrders   Module = "sales_orders"
	ServiceOrders Module = "service_orders"
	ReconOrders   Module = "recon_orders"
	CarWash       Module = "car_wash"
	Stock         Module = "stock"
	Contacts      Module = "contacts"
	Chat          Module = "chat"
	Reports       Module = "reports"
	Settings      Module = "settings"
	DetailHub     Module = "detail_hub"
	Productivity  Module = "productivity"
	Users         Module = "users"
	Dealerships   Module = "dealerships"
)

// All returns every defined module in display order.
func All() []Module {
	return []Module{
		Dashboard,
		SalesOrders,
		ServiceOrders,
		ReconOrders,
		CarWash,
		Stock,
		Contacts,
		Chat,
		Reports,
		Settings,
		DetailHub,
		Productivity,
		Users,
		Dealerships,
	}
}

// String returns the string representation of the module.
func (m Module) String() string {
	return string(m)
}

// IsValid reports whether the module is part of the closed set.
func (m Module) IsValid() bool {
	return slices.Contains(All(), m)
}

// Parse converts a string to a Module. The second return is false for
// identifiers outside the closed set.
func Parse(s string) (Module, bool) {
	m := Module(s)
	return m, m.IsValid()
}
