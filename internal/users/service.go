// Package users manages accounts: role-based permission tables with admin
// overrides, the self-service guards, password resets and status toggles.
package users

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/db"
	"github.com/ukydev/transportpro/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credentials hashes and validates passwords. *auth.Service implements it.
type Credentials interface {
	HashPassword(password string) (string, error)
	ValidatePassword(password string) error
	ValidateEmail(email string) error
	ValidateUsername(username string) error
}

// Service handles user management.
type Service struct {
	users db.UserCollection
	creds Credentials
}

// NewService creates a user service.
func NewService(users db.UserCollection, creds Credentials) *Service {
	return &Service{users: users, creds: creds}
}

// Filter narrows a user listing.
type Filter struct {
	Role   models.Role
	Status models.UserStatus
}

// Stats counts users by role and status.
type Stats struct {
	TotalUsers    int `json:"totalUsers"`
	TotalAdmins   int `json:"totalAdmins"`
	TotalStaff    int `json:"totalStaff"`
	ActiveUsers   int `json:"activeUsers"`
	InactiveUsers int `json:"inactiveUsers"`
}

// List returns users matching filter together with stats over all users.
func (s *Service) List(ctx context.Context, caller authz.Caller, filter Filter) ([]models.User, Stats, error) {
	if err := authz.Require(caller, authz.ModuleUserManagement, authz.ViewUsers); err != nil {
		return nil, Stats{}, err
	}
	all, err := s.users.FindUsers(ctx)
	if err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	matched := []models.User{}
	for _, u := range all {
		stats.TotalUsers++
		switch u.Role {
		case models.RoleAdmin:
			stats.TotalAdmins++
		case models.RoleStaff:
			stats.TotalStaff++
		}
		if u.IsActive() {
			stats.ActiveUsers++
		} else {
			stats.InactiveUsers++
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		matched = append(matched, u)
	}
	return matched, stats, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, caller authz.Caller, id string) (*models.User, error) {
	if err := authz.Require(caller, authz.ModuleUserManagement, authz.ViewUsers); err != nil {
		return nil, err
	}
	return s.users.FindUserByID(ctx, id)
}

// Create adds a user. Permissions start from the role defaults and the
// supplied table is merged over them flag by flag.
func (s *Service) Create(ctx context.Context, caller authz.Caller, req models.CreateUserRequest) (*models.User, error) {
	if err := authz.Require(caller, authz.ModuleUserManagement, authz.CreateUsers); err != nil {
		return nil, err
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Username == "" || req.Email == "" || req.FullName == "" || req.Password == "" {
		return nil, apperr.Validation("username, email, full name, and password are required")
	}
	if err := s.validate(req.Username, req.Email); err != nil {
		return nil, err
	}
	if err := s.creds.ValidatePassword(req.Password); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if req.Role == "" {
		req.Role = models.RoleStaff
	}
	if !models.IsValidRole(req.Role) {
		return nil, apperr.Validation("invalid role %q", req.Role)
	}
	if err := authz.GuardAdminRole(caller, req.Role); err != nil {
		return nil, err
	}
	permissions := authz.ForRole(req.Role, req.Permissions)
	if err := authz.GuardGrantedFlags(caller, authz.DefaultPermissions(req.Role), permissions); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = models.UserActive
	}
	if !models.IsValidUserStatus(req.Status) {
		return nil, apperr.Validation("invalid status %q", req.Status)
	}
	if err := s.checkUnique(ctx, primitive.NilObjectID, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := s.creds.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Department:   req.Department,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       req.Status,
		Permissions:  permissions,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
		"role":    user.Role,
	}).Info("User created")
	return user, nil
}

// Update applies a partial update. A role change rebuilds the permission
// table from the new role's defaults before any supplied overrides.
// Non-admin callers cannot touch admins, assign the admin role, edit their
// own table, or grant flags they lack.
func (s *Service) Update(ctx context.Context, caller authz.Caller, id string, req models.UpdateUserRequest) (*models.User, error) {
	if err := authz.Require(caller, authz.ModuleUserManagement, authz.EditUsers); err != nil {
		return nil, err
	}
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.GuardAdminTarget(caller, user); err != nil {
		return nil, err
	}
	if err := authz.GuardAdminRole(caller, req.Role); err != nil {
		return nil, err
	}
	if err := authz.GuardRoleChange(caller, user.ID, req.Role); err != nil {
		return nil, err
	}
	if req.Status != "" && req.Status != user.Status {
		if err := authz.GuardSelfStatusToggle(caller, user.ID); err != nil {
			return nil, err
		}
		if !models.IsValidUserStatus(req.Status) {
			return nil, apperr.Validation("invalid status %q", req.Status)
		}
	}
	if req.Role != "" && !models.IsValidRole(req.Role) {
		return nil, apperr.Validation("invalid role %q", req.Role)
	}

	role, permissions := user.Role, user.Permissions
	granted := user.Permissions
	switch {
	case req.Role != "" && req.Role != user.Role:
		role = req.Role
		permissions = authz.ForRole(req.Role, req.Permissions)
		granted = authz.DefaultPermissions(req.Role)
	case req.Permissions != nil:
		permissions = authz.Merge(user.Permissions, req.Permissions)
	}
	if err := authz.GuardSelfPermissions(caller, user.ID, user.Permissions, permissions); err != nil {
		return nil, err
	}
	if err := authz.GuardGrantedFlags(caller, granted, permissions); err != nil {
		return nil, err
	}

	username := firstNonEmpty(strings.TrimSpace(req.Username), user.Username)
	email := firstNonEmpty(strings.ToLower(strings.TrimSpace(req.Email)), user.Email)
	if username != user.Username || email != user.Email {
		if err := s.validate(username, email); err != nil {
			return nil, err
		}
		if err := s.checkUnique(ctx, user.ID, username, email); err != nil {
			return nil, err
		}
	}
	user.Username = username
	user.Email = email
	user.FullName = firstNonEmpty(strings.TrimSpace(req.FullName), user.FullName)
	user.Phone = firstNonEmpty(req.Phone, user.Phone)
	user.Department = firstNonEmpty(req.Department, user.Department)
	if req.Status != "" {
		user.Status = req.Status
	}
	user.Role = role
	user.Permissions = permissions

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"user_id": user.ID.Hex(),
		"role":    user.Role,
		"status":  user.Status,
	}).Info("User updated")
	return user, nil
}

// Delete removes a user. Callers cannot delete themselves.
func (s *Service) Delete(ctx context.Context, caller authz.Caller, id string) error {
	if err := authz.Require(caller, authz.ModuleUserManagement, authz.DeleteUsers); err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperr.NotFound("user")
	}
	if err := authz.GuardSelfDelete(caller, oid); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		user, err := s.users.FindUserByID(ctx, id)
		if err != nil {
			return err
		}
		if err := authz.GuardAdminTarget(caller, user); err != nil {
			return err
		}
	}
	if err := s.users.DeleteUser(ctx, oid); err != nil {
		return err
	}
	log.WithField("user_id", id).Info("User deleted")
	return nil
}

// ResetPassword sets a new password for another user.
func (s *Service) ResetPassword(ctx context.Context, caller authz.Caller, id, newPassword string) error {
	if err := authz.Require(caller, authz.ModuleUserManagement, authz.EditUsers); err != nil {
		return err
	}
	if err := s.creds.ValidatePassword(newPassword); err != nil {
		return apperr.Validation("new %s", err.Error())
	}
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.GuardAdminTarget(caller, user); err != nil {
		return err
	}
	hash, err := s.creds.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	log.WithField("user_id", id).Info("User password reset")
	return nil
}

// ToggleStatus flips a user between active and inactive. Callers cannot
// toggle themselves.
func (s *Service) ToggleStatus(ctx context.Context, caller authz.Caller, id string) (*models.User, error) {
	if err := authz.Require(caller, authz.ModuleUserManagement, authz.EditUsers); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("user")
	}
	if err := authz.GuardSelfStatusToggle(caller, oid); err != nil {
		return nil, err
	}
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.GuardAdminTarget(caller, user); err != nil {
		return nil, err
	}
	if user.IsActive() {
		user.Status = models.UserInactive
	} else {
		user.Status = models.UserActive
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": id, "status": user.Status}).Info("User status toggled")
	return user, nil
}

func (s *Service) validate(username, email string) error {
	if err := s.creds.ValidateUsername(username); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if err := s.creds.ValidateEmail(email); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	return nil
}

// checkUnique rejects a username or email held by a user other than self.
func (s *Service) checkUnique(ctx context.Context, self primitive.ObjectID, username, email string) error {
	if u, err := s.users.FindUserByEmail(ctx, email); err == nil && u.ID != self {
		return apperr.Conflict(1, "user with this email or username already exists")
	} else if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	if u, err := s.users.FindUserByUsername(ctx, username); err == nil && u.ID != self {
		return apperr.Conflict(1, "user with this email or username already exists")
	} else if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	return nil
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
