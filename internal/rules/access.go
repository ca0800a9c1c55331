package rules

import (
	"github.com/bricks-admin/dashboard/internal/models"
)

// CanView reports whether viewer may see target's record.
// A user sees only itself, an admin sees user accounts and itself,
// a superadmin sees everyone. A missing or unknown role sees nothing.
func CanView(viewer models.Identity, target models.User) bool {
	switch viewer.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin:
		return target.ID == viewer.ID || target.Role == models.RoleUser
	case models.RoleUser:
		return target.ID == viewer.ID
	}
	return false
}

// VisibleUsers filters users down to what viewer may see, preserving order
func VisibleUsers(viewer models.Identity, users []models.User) []models.User {
	visible := make([]models.User, 0, len(users))
	for _, u := range users {
		if CanView(viewer, u) {
			visible = append(visible, u)
		}
	}
	return visible
}

// CanEdit reports whether the edit action is offered on target
func CanEdit(viewer models.Identity, target models.User) bool {
	if !CanView(viewer, target) {
		return false
	}
	if viewer.Role == models.RoleUser {
		return target.ID == viewer.ID
	}
	return true
}

// CanDelete reports whether the delete action is offered on target.
// Nobody deletes their own account, and plain users delete nothing.
func CanDelete(viewer models.Identity, target models.User) bool {
	if viewer.Role == models.RoleUser || target.ID == viewer.ID {
		return false
	}
	return CanView(viewer, target)
}

// CanCreateRole reports whether creator may create an account with role.
// Admin and superadmin accounts can only be created by a superadmin.
func CanCreateRole(creator models.Role, role models.Role) bool {
	if !role.Valid() {
		return false
	}
	switch creator {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin:
		return role == models.RoleUser
	}
	return false
}

// CanAssignRole reports whether viewer may move target to role
func CanAssignRole(viewer models.Identity, target models.User, role models.Role) bool {
	return CanEdit(viewer, target) && (role == target.Role || CanCreateRole(viewer.Role, role))
}

// CanSeeUsersTab gates the users management tab
func CanSeeUsersTab(role models.Role) bool { return role.IsStaff() }

// CanSeeAdminTab gates the admins management tab
func CanSeeAdminTab(role models.Role) bool { return role == models.RoleSuperAdmin }

// CanAccessUserData reports whether viewer may read data owned by userID
func CanAccessUserData(viewer models.Identity, userID int64) bool {
	if viewer.Role.IsStaff() {
		return true
	}
	return viewer.Role == models.RoleUser && viewer.ID == userID
}
