package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/rules"
	"golang.org/x/crypto/bcrypt"
)

func (s *DefaultService) Register(ctx context.Context, caller models.Identity, req models.RegisterRequest) (*models.User, error) {
	if !rules.CanCreateRole(caller.Role, req.Role) {
		return nil, fmt.Errorf("%s cannot create %s accounts: %w", caller.Role, req.Role, ErrForbidden)
	}
	createdBy := caller.ID
	return s.createUser(ctx, &createdBy, req)
}

func (s *DefaultService) createUser(ctx context.Context, createdBy *int64, req models.RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)

	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if existingUser != nil {
		return nil, fmt.Errorf("user with this email already exists: %w", ErrConflict)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Password:  string(hashedPassword),
		Role:      req.Role,
		IsActive:  true,
		CreatedBy: createdBy,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, writeError("creating", "user", 0, err)
	}
	return user, nil
}

func (s *DefaultService) ListUsers(ctx context.Context, caller models.Identity) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return rules.VisibleUsers(caller, users), nil
}

func (s *DefaultService) UpdateUser(ctx context.Context, caller models.Identity, userID int64, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.mustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !rules.CanEdit(caller, *user) {
		return nil, fmt.Errorf("cannot edit user %d: %w", userID, ErrForbidden)
	}

	if req.Role != nil && *req.Role != user.Role {
		if !rules.CanAssignRole(caller, *user, *req.Role) {
			return nil, fmt.Errorf("cannot assign role %s: %w", *req.Role, ErrForbidden)
		}
		user.Role = *req.Role
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.EqualFold(email, user.Email) {
			other, err := s.repo.GetUserByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("error checking user existence: %w", err)
			}
			if other != nil {
				return nil, fmt.Errorf("user with this email already exists: %w", ErrConflict)
			}
		}
		user.Email = email
	}
	if req.IsActive != nil {
		if user.ID == caller.ID && !*req.IsActive {
			return nil, fmt.Errorf("cannot deactivate own account: %w", ErrForbidden)
		}
		user.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, writeError("updating", "user", user.ID, err)
	}
	return user, nil
}

func (s *DefaultService) DeleteUser(ctx context.Context, caller models.Identity, userID int64) error {
	user, err := s.mustGetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !rules.CanDelete(caller, *user) {
		return fmt.Errorf("cannot delete user %d: %w", userID, ErrForbidden)
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	return nil
}
