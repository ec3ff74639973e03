package users

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/transportpro/internal/apperr"
	"github.com/ukydev/transportpro/internal/authz"
	"github.com/ukydev/transportpro/internal/models"
)

// DefaultAdminPassword is used when no admin password is configured.
const DefaultAdminPassword = "Admin@1234"

// EnsureAdmin creates the bootstrap admin account when no user has email.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	existing, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		log.WithField("email", existing.Email).Debug("Admin already exists")
		return nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}

	if password == "" {
		password = DefaultAdminPassword
		log.WithField("email", email).Warn("ADMIN_PASSWORD not set, using the default admin password")
	}
	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:     "admin",
		Email:        email,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.UserActive,
		Permissions:  authz.DefaultPermissions(models.RoleAdmin),
	}
	if err := s.users.InsertUser(ctx, admin); err != nil {
		return err
	}
	log.WithField("email", email).Info("Admin user created")
	return nil
}
