package service

import (
	"context"
	"fmt"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/rules"
	"github.com/shopspring/decimal"
)

func (s *DefaultService) GetBalance(ctx context.Context, caller models.Identity, userID int64) (*models.BalanceSummary, error) {
	user, err := s.visibleUser(ctx, caller, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, user)
}

// summarize derives both material accounts: total is the tonnage bought,
// used is the weight of every token past pending.
func (s *DefaultService) summarize(ctx context.Context, user *models.User) (*models.BalanceSummary, error) {
	txs, err := s.repo.ListTransactions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	tokens, err := s.repo.ListTokensByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing tokens: %w", err)
	}

	flyTotal, bedTotal := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		flyTotal = flyTotal.Add(tx.FlyashTons)
		bedTotal = bedTotal.Add(tx.BedashTons)
	}
	flyUsed, bedUsed := decimal.Zero, decimal.Zero
	for _, t := range tokens {
		if t.Status == models.TokenPending {
			continue
		}
		switch t.MaterialType {
		case models.MaterialFlyash:
			flyUsed = flyUsed.Add(t.Weight)
		case models.MaterialBedash:
			bedUsed = bedUsed.Add(t.Weight)
		}
	}

	if txs == nil {
		txs = []models.Transaction{}
	}
	return &models.BalanceSummary{
		User:         *user.Ref(),
		Flyash:       rules.Balance(flyTotal, flyUsed),
		Bedash:       rules.Balance(bedTotal, bedUsed),
		Transactions: txs,
	}, nil
}

func (s *DefaultService) AddBalance(ctx context.Context, caller models.Identity, req models.AddBalanceRequest) (*models.Transaction, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	form := rules.BalanceForm{
		UserID:          req.UserID,
		FlyashAmount:    req.FlyashAmount,
		BedashAmount:    req.BedashAmount,
		PaymentMode:     req.PaymentMode,
		BankName:        req.BankName,
		AccountHolder:   req.AccountHolder,
		ReferenceNumber: req.ReferenceNumber,
	}
	if err := validationError(rules.ValidateBalanceForm(form)); err != nil {
		return nil, err
	}

	user, err := s.visibleUser(ctx, caller, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleUser {
		return nil, fmt.Errorf("balance can only be added to user accounts: %w", ErrValidation)
	}

	tx := newTransaction(form)
	tx.UserID = user.ID
	tx.Date = s.now()
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("error creating transaction: %w", err)
	}
	return tx, nil
}

func (s *DefaultService) EditBalance(ctx context.Context, caller models.Identity, transactionID int64, req models.EditBalanceRequest) (*models.Transaction, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("error getting transaction: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	if _, err := s.visibleUser(ctx, caller, existing.UserID); err != nil {
		return nil, err
	}

	form := rules.BalanceForm{
		UserID:          existing.UserID,
		FlyashAmount:    existing.FlyashAmount,
		BedashAmount:    existing.BedashAmount,
		PaymentMode:     existing.PaymentMode,
		BankName:        existing.BankName,
		AccountHolder:   existing.AccountHolder,
		ReferenceNumber: existing.ReferenceNumber,
	}
	if req.FlyashAmount != nil {
		form.FlyashAmount = *req.FlyashAmount
	}
	if req.BedashAmount != nil {
		form.BedashAmount = *req.BedashAmount
	}
	if req.PaymentMode != nil {
		form.PaymentMode = *req.PaymentMode
	}
	if req.BankName != nil {
		form.BankName = *req.BankName
	}
	if req.AccountHolder != nil {
		form.AccountHolder = *req.AccountHolder
	}
	if req.ReferenceNumber != nil {
		form.ReferenceNumber = *req.ReferenceNumber
	}
	if err := validationError(rules.ValidateBalanceForm(form)); err != nil {
		return nil, err
	}

	tx := newTransaction(form)
	tx.ID = existing.ID
	tx.UserID = existing.UserID
	tx.Date = existing.Date
	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("error updating transaction: %w", err)
	}
	return tx, nil
}

func (s *DefaultService) DeleteBalance(ctx context.Context, caller models.Identity, transactionID int64) error {
	if err := requireStaff(caller); err != nil {
		return err
	}
	existing, err := s.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("error getting transaction: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	if _, err := s.visibleUser(ctx, caller, existing.UserID); err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, transactionID); err != nil {
		return fmt.Errorf("error deleting transaction: %w", err)
	}
	return nil
}

// AdminBalance reports the balances of every user account the caller can see
func (s *DefaultService) AdminBalance(ctx context.Context, caller models.Identity) ([]models.AdminBalanceRow, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	users, err := s.ListUsers(ctx, caller)
	if err != nil {
		return nil, err
	}

	rows := make([]models.AdminBalanceRow, 0, len(users))
	for i := range users {
		if users[i].Role != models.RoleUser {
			continue
		}
		summary, err := s.summarize(ctx, &users[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.AdminBalanceRow{
			User:      summary.User,
			Flyash:    summary.Flyash,
			Bedash:    summary.Bedash,
			TotalTons: summary.RemainingTons(),
		})
	}
	return rows, nil
}

func newTransaction(f rules.BalanceForm) *models.Transaction {
	req := f.Request()
	return &models.Transaction{
		FlyashAmount:    req.FlyashAmount,
		BedashAmount:    req.BedashAmount,
		TotalAmount:     req.FlyashAmount.Add(req.BedashAmount),
		FlyashTons:      rules.Tons(req.FlyashAmount),
		BedashTons:      rules.Tons(req.BedashAmount),
		PaymentMode:     req.PaymentMode,
		BankName:        req.BankName,
		AccountHolder:   req.AccountHolder,
		ReferenceNumber: req.ReferenceNumber,
	}
}

// visibleUser loads userID and checks the caller may see that account
func (s *DefaultService) visibleUser(ctx context.Context, caller models.Identity, userID int64) (*models.User, error) {
	user, err := s.mustGetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !rules.CanView(caller, *user) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrForbidden)
	}
	return user, nil
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	if rules.IsValidationError(err) {
		return fmt.Errorf("%s: %w", err.Error(), ErrValidation)
	}
	return err
}
