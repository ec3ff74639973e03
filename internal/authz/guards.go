package authz

import (
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GuardRoleChange rejects a caller moving their own account off admin.
// An empty newRole means the role is not being changed.
func GuardRoleChange(c Caller, target primitive.ObjectID, newRole models.Role) error {
	if c.Is(target) && newRole != "" && newRole != models.RoleAdmin {
		return apperr.Validation("you cannot change your own role from admin")
	}
	return nil
}

// GuardSelfDelete rejects a caller deleting their own account.
func GuardSelfDelete(c Caller, target primitive.ObjectID) error {
	if c.Is(target) {
		return apperr.Validation("you cannot delete your own account")
	}
	return nil
}

// GuardSelfStatusToggle rejects a caller activating or deactivating themselves.
func GuardSelfStatusToggle(c Caller, target primitive.ObjectID) error {
	if c.Is(target) {
		return apperr.Validation("you cannot change your own account status")
	}
	return nil
}

// GuardAdminRole rejects a non-admin assigning the admin role.
func GuardAdminRole(c Caller, role models.Role) error {
	if !c.IsAdmin() && role == models.RoleAdmin {
		return apperr.Denied("only admins can assign the admin role")
	}
	return nil
}

// GuardAdminTarget rejects a non-admin modifying or removing an admin account.
func GuardAdminTarget(c Caller, target *models.User) error {
	if !c.IsAdmin() && target.Role == models.RoleAdmin {
		return apperr.Denied("only admins can modify an admin account")
	}
	return nil
}

// GuardSelfPermissions rejects a non-admin whose update would change their
// own permission table.
func GuardSelfPermissions(c Caller, target primitive.ObjectID, before, after models.PermissionTable) error {
	if c.IsAdmin() || !c.Is(target) {
		return nil
	}
	for _, m := range catalog {
		for _, a := range m.actions {
			if before[m.module][a] != after[m.module][a] {
				return apperr.Validation("you cannot change your own permissions")
			}
		}
	}
	return nil
}

// GuardGrantedFlags rejects a non-admin switching on a flag, going from
// before to after, that the caller does not hold.
func GuardGrantedFlags(c Caller, before, after models.PermissionTable) error {
	if c.IsAdmin() {
		return nil
	}
	for _, m := range catalog {
		for _, a := range m.actions {
			if after[m.module][a] && !before[m.module][a] && !c.Permissions[m.module][a] {
				return apperr.Denied("cannot grant %s.%s without holding it", m.module, a)
			}
		}
	}
	return nil
}
