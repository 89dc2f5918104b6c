// Package registry holds the single authoritative table of installed
// platform apps. The static bootstrap list below is seed data applied once
// at initialization; request-time reads go to the table only.
package registry

import "time"

// App describes one installed sub-application.
type App struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// DefaultApps is the bootstrap seed. It is never consulted at request time.
var DefaultApps = []App{
	// Hidden from dashboards; exists so grant administration has an app
	// scope of its own.
	{Code: "platform", Name: "Platform Administration", Enabled: false, SortOrder: 0},
	{Code: "finance", Name: "Stripe Statements", Enabled: true, SortOrder: 10},
	{Code: "expenses", Name: "Expense Claims", Enabled: true, SortOrder: 20},
	{Code: "leave", Name: "Leave Management", Enabled: true, SortOrder: 30},
	{Code: "crm", Name: "CRM", Enabled: true, SortOrder: 40},
	{Code: "assets", Name: "Asset Tracking", Enabled: true, SortOrder: 50},
	{Code: "events", Name: "Event Management", Enabled: true, SortOrder: 60},
	{Code: "projects", Name: "Project Management", Enabled: true, SortOrder: 70},
}
