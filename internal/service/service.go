package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/repository"
	"github.com/bricks-admin/dashboard/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrValidation         = errors.New("validation failed")
)

// Service defines all the business logic operations. Every call past login
// runs on behalf of caller, the identity decoded from the bearer credential.
type Service interface {
	// Authentication
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, caller models.Identity, req models.RegisterRequest) (*models.User, error)
	EnsureSuperAdmin(ctx context.Context, name, email, password string) (*models.User, error)

	// Users
	ListUsers(ctx context.Context, caller models.Identity) ([]models.User, error)
	UpdateUser(ctx context.Context, caller models.Identity, userID int64, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, caller models.Identity, userID int64) error

	// Balance
	GetBalance(ctx context.Context, caller models.Identity, userID int64) (*models.BalanceSummary, error)
	AddBalance(ctx context.Context, caller models.Identity, req models.AddBalanceRequest) (*models.Transaction, error)
	EditBalance(ctx context.Context, caller models.Identity, transactionID int64, req models.EditBalanceRequest) (*models.Transaction, error)
	DeleteBalance(ctx context.Context, caller models.Identity, transactionID int64) error
	AdminBalance(ctx context.Context, caller models.Identity) ([]models.AdminBalanceRow, error)

	// Tokens
	ListTokens(ctx context.Context, caller models.Identity, userID int64) ([]models.Token, error)
	ListAllTokens(ctx context.Context, caller models.Identity) ([]models.Token, error)
	CreateToken(ctx context.Context, caller models.Identity, req models.CreateTokenRequest) (*models.Token, error)
	UpdateToken(ctx context.Context, caller models.Identity, req models.UpdateTokenRequest) (*models.Token, error)
	ConfirmToken(ctx context.Context, caller models.Identity, req models.ConfirmTokenRequest) (*models.Token, error)
	DeleteToken(ctx context.Context, caller models.Identity, tokenID int64) error

	// Bedash messages
	ListBedash(ctx context.Context, caller models.Identity) ([]models.BedashItem, error)
	AddBedash(ctx context.Context, caller models.Identity, req models.AddBedashRequest) (*models.BedashItem, error)
	ConfirmBedash(ctx context.Context, caller models.Identity, id int64) (*models.BedashItem, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
	logger        *utils.Logger
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string, tokenDuration time.Duration, logger *utils.Logger) *DefaultService {
	if tokenDuration <= 0 {
		tokenDuration = 24 * time.Hour
	}
	if logger == nil {
		logger = utils.Discard()
	}
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: tokenDuration,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Authentication methods
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	// Get the user
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	s.logger.Info("user %d logged in", user.ID)
	return &models.LoginResponse{Msg: "Login successful", Token: token}, nil
}

// EnsureSuperAdmin creates the bootstrap superadmin if no account uses email yet
func (s *DefaultService) EnsureSuperAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}
	if existing != nil {
		return existing, nil
	}
	return s.createUser(ctx, nil, models.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     models.RoleSuperAdmin,
	})
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := models.Claims{
		ID:   user.ID,
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *DefaultService) mustGetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return user, nil
}

// writeError reports a repository write. Losing a status-guarded write means
// another request moved the record first.
func writeError(action, kind string, id int64, err error) error {
	switch {
	case errors.Is(err, repository.ErrStatusChanged):
		return fmt.Errorf("%s %d was changed by another request: %w", kind, id, ErrInvalidTransition)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("user with this email already exists: %w", ErrConflict)
	}
	return fmt.Errorf("error %s %s: %w", action, kind, err)
}

func requireStaff(caller models.Identity) error {
	if !caller.Role.IsStaff() {
		return fmt.Errorf("role %q: %w", caller.Role, ErrForbidden)
	}
	return nil
}
