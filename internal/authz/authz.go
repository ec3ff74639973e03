// Package authz decides whether a caller may perform a module action and
// builds the role-based default permission tables.
package authz

import (
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Modules.
const (
	ModuleTransportation = "transportation"
	ModuleInventory      = "inventory"
	ModuleReports        = "reports"
	ModuleUserManagement = "userManagement"
)

// Actions.
const (
	ViewTrips   = "viewTrips"
	EditTrips   = "editTrips"
	CreateTrips = "createTrips"
	DeleteTrips = "deleteTrips"

	ViewInventory = "viewInventory"
	EditTrucks    = "editTrucks"
	AddTrucks     = "addTrucks"
	DeleteTrucks  = "deleteTrucks"

	ViewReports   = "viewReports"
	ExportReports = "exportReports"

	ViewUsers   = "viewUsers"
	EditUsers   = "editUsers"
	CreateUsers = "createUsers"
	DeleteUsers = "deleteUsers"
)

type moduleActions struct {
	module  string
	actions []string
}

var catalog = []moduleActions{
	{ModuleTransportation, []string{ViewTrips, EditTrips, CreateTrips, DeleteTrips}},
	{ModuleInventory, []string{ViewInventory, EditTrucks, AddTrucks, DeleteTrucks}},
	{ModuleReports, []string{ViewReports, ExportReports}},
	{ModuleUserManagement, []string{ViewUsers, EditUsers, CreateUsers, DeleteUsers}},
}

// staff baseline: view-only outside user management
var staffBaseline = map[string]string{
	ModuleTransportation: ViewTrips,
	ModuleInventory:      ViewInventory,
	ModuleReports:        ViewReports,
}

// IsKnown reports whether module.action is part of the permission table.
func IsKnown(module, action string) bool {
	for _, m := range catalog {
		if m.module != module {
			continue
		}
		for _, a := range m.actions {
			if a == action {
				return true
			}
		}
	}
	return false
}

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Caller is the resolved identity behind a request.
type Caller struct {
	UserID      primitive.ObjectID
	Role        models.Role
	Permissions models.PermissionTable
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// Is reports whether the caller is the user with the given id.
func (c Caller) Is(id primitive.ObjectID) bool {
	return !id.IsZero() && c.UserID == id
}

// Authorize allows admins unconditionally. Anyone else needs the flag set
// in their table; a missing module or action is a deny.
func Authorize(c Caller, module, action string) Decision {
	if c.IsAdmin() {
		return Allow
	}
	return Decision(c.Permissions[module][action])
}

// Require is Authorize reported as an error.
func Require(c Caller, module, action string) error {
	if Authorize(c, module, action) == Deny {
		return apperr.Permission(module, action)
	}
	return nil
}

// DefaultPermissions returns a fresh table for role: every flag true for
// admin, the view-only baseline for staff, and all false for anything else.
func DefaultPermissions(role models.Role) models.PermissionTable {
	table := make(models.PermissionTable, len(catalog))
	for _, m := range catalog {
		actions := make(map[string]bool, len(m.actions))
		for _, a := range m.actions {
			switch role {
			case models.RoleAdmin:
				actions[a] = true
			case models.RoleStaff:
				actions[a] = staffBaseline[m.module] == a
			default:
				actions[a] = false
			}
		}
		table[m.module] = actions
	}
	return table
}

// Merge overlays the leaf flags of override onto a copy of base. Modules
// and actions outside the catalog are ignored; base is never modified.
func Merge(base, override models.PermissionTable) models.PermissionTable {
	out := base.Clone()
	if out == nil {
		out = make(models.PermissionTable)
	}
	for module, actions := range override {
		for action, allowed := range actions {
			if !IsKnown(module, action) {
				continue
			}
			if out[module] == nil {
				out[module] = make(map[string]bool)
			}
			out[module][action] = allowed
		}
	}
	return out
}

// ForRole builds the table for a newly created or re-roled user.
func ForRole(role models.Role, override models.PermissionTable) models.PermissionTable {
	return Merge(DefaultPermissions(role), override)
}
