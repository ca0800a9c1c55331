package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/rules"
)

func (s *DefaultService) ListTokens(ctx context.Context, caller models.Identity, userID int64) ([]models.Token, error) {
	user, err := s.visibleUser(ctx, caller, userID)
	if err != nil {
		return nil, err
	}
	tokens, err := s.repo.ListTokensByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing tokens: %w", err)
	}
	ref := user.Ref()
	for i := range tokens {
		tokens[i].User = ref
	}
	return nonNil(tokens), nil
}

// ListAllTokens lists every token owned by an account the caller can see
func (s *DefaultService) ListAllTokens(ctx context.Context, caller models.Identity) ([]models.Token, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	users, err := s.ListUsers(ctx, caller)
	if err != nil {
		return nil, err
	}
	refs := make(map[int64]*models.UserRef, len(users))
	for _, u := range users {
		refs[u.ID] = u.Ref()
	}

	all, err := s.repo.ListTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing tokens: %w", err)
	}
	tokens := make([]models.Token, 0, len(all))
	for _, t := range all {
		ref, ok := refs[t.UserID]
		if !ok {
			continue
		}
		t.User = ref
		tokens = append(tokens, t)
	}
	return tokens, nil
}

func (s *DefaultService) CreateToken(ctx context.Context, caller models.Identity, req models.CreateTokenRequest) (*models.Token, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	form := rules.TokenForm{UserID: req.UserID, CustomerName: req.CustomerName, MaterialType: req.MaterialType}
	if err := validationError(rules.ValidateTokenForm(form)); err != nil {
		return nil, err
	}
	user, err := s.visibleUser(ctx, caller, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleUser {
		return nil, fmt.Errorf("tokens can only be issued to user accounts: %w", ErrValidation)
	}

	token := &models.Token{
		UserID:       user.ID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		MaterialType: req.MaterialType,
		RatePerTon:   rules.RatePerTon,
		Status:       models.TokenPending,
	}
	if err := s.repo.CreateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("error creating token: %w", err)
	}
	token.User = user.Ref()
	s.logger.Info("token %d created for user %d by %d", token.ID, user.ID, caller.ID)
	return token, nil
}

// UpdateToken records truck and billing details; the token moves to updated
func (s *DefaultService) UpdateToken(ctx context.Context, caller models.Identity, req models.UpdateTokenRequest) (*models.Token, error) {
	token, user, err := s.staffToken(ctx, caller, req.TokenID)
	if err != nil {
		return nil, err
	}
	if !token.Status.CanAdvanceTo(models.TokenUpdated) {
		return nil, fmt.Errorf("token %d is %s: %w", token.ID, token.Status, ErrInvalidTransition)
	}
	if req.Weight.Sign() < 0 || req.Commission.Sign() < 0 {
		return nil, fmt.Errorf("weight and commission cannot be negative: %w", ErrValidation)
	}

	from := token.Status
	token.TruckNumber = strings.TrimSpace(req.TruckNumber)
	token.Weight = req.Weight
	token.Commission = req.Commission
	token.RatePerTon = rules.RatePerTon
	token.TotalAmount = rules.TokenTotal(req.Weight, req.Commission)
	token.Status = models.TokenUpdated
	if err := s.repo.UpdateToken(ctx, token, from); err != nil {
		return nil, writeError("updating", "token", token.ID, err)
	}
	token.User = user.Ref()
	return token, nil
}

// ConfirmToken records the payment of an updated token and completes it
func (s *DefaultService) ConfirmToken(ctx context.Context, caller models.Identity, req models.ConfirmTokenRequest) (*models.Token, error) {
	token, user, err := s.staffToken(ctx, caller, req.TokenID)
	if err != nil {
		return nil, err
	}
	if token.Status != models.TokenUpdated || !token.Status.CanAdvanceTo(models.TokenCompleted) {
		return nil, fmt.Errorf("token %d is %s: %w", token.ID, token.Status, ErrInvalidTransition)
	}
	if req.PaidAmount.Sign() < 0 {
		return nil, fmt.Errorf("paid amount cannot be negative: %w", ErrValidation)
	}

	now := s.now()
	token.PaidAmount = req.PaidAmount
	token.CarryForward = rules.CarryForward(req.PaidAmount, token.TotalAmount)
	token.Status = models.TokenCompleted
	token.ConfirmedAt = &now
	if err := s.repo.UpdateToken(ctx, token, models.TokenUpdated); err != nil {
		return nil, writeError("confirming", "token", token.ID, err)
	}
	token.User = user.Ref()
	return token, nil
}

// DeleteToken removes a token that is still pending
func (s *DefaultService) DeleteToken(ctx context.Context, caller models.Identity, tokenID int64) error {
	token, _, err := s.staffToken(ctx, caller, tokenID)
	if err != nil {
		return err
	}
	if token.Status != models.TokenPending {
		return fmt.Errorf("token %d is %s, only pending tokens can be deleted: %w", token.ID, token.Status, ErrInvalidTransition)
	}
	if err := s.repo.DeleteToken(ctx, tokenID, models.TokenPending); err != nil {
		return writeError("deleting", "token", tokenID, err)
	}
	return nil
}

func (s *DefaultService) staffToken(ctx context.Context, caller models.Identity, tokenID int64) (*models.Token, *models.User, error) {
	if err := requireStaff(caller); err != nil {
		return nil, nil, err
	}
	token, err := s.repo.GetToken(ctx, tokenID)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting token: %w", err)
	}
	if token == nil {
		return nil, nil, fmt.Errorf("token %d: %w", tokenID, ErrNotFound)
	}
	user, err := s.visibleUser(ctx, caller, token.UserID)
	if err != nil {
		return nil, nil, err
	}
	return token, user, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
