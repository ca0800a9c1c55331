package store

import (
	"context"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/rules"
	"github.com/bricks-admin/dashboard/internal/storage"
)

// Users

func (s *Store) FetchUsers(ctx context.Context) error {
	return fetch(ctx, s, sliceUsers, s.api.Users, func(st *State, users []models.User) {
		st.Users.Items, st.Users.Total = users, len(users)
	})
}

// AddUser validates the form against the signed-in role before sending it
func (s *Store) AddUser(ctx context.Context, form rules.UserForm) error {
	if err := rules.ValidateUserForm(s.Snapshot().Auth.User.Role, form); err != nil {
		s.notify(models.NotifyWarning, err.Error())
		return err
	}
	return s.mutate(ctx, "addUser", "User created", func(ctx context.Context) error {
		_, err := s.api.Register(ctx, form.Request())
		return err
	}, s.FetchUsers)
}

func (s *Store) UpdateUser(ctx context.Context, userID int64, req models.UpdateUserRequest) error {
	return s.mutate(ctx, "updateUser", "User updated", func(ctx context.Context) error {
		_, err := s.api.UpdateUser(ctx, userID, req)
		return err
	}, s.FetchUsers)
}

func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	return s.mutate(ctx, "deleteUser", "User deleted", func(ctx context.Context) error {
		return s.api.DeleteUser(ctx, userID)
	}, s.FetchUsers)
}

// SelectUser picks the account whose tokens and balance the pages show
func (s *Store) SelectUser(userID int64) {
	s.update(func(st *State) { st.SelectedUser = userID })
}

// Balance

func (s *Store) FetchBalance(ctx context.Context, userID int64) error {
	get := func(ctx context.Context) (*models.BalanceSummary, error) { return s.api.Balance(ctx, userID) }
	return fetch(ctx, s, sliceBalance, get, func(st *State, summary *models.BalanceSummary) {
		st.Balance.Summary = summary
	})
}

func (s *Store) FetchAdminBalance(ctx context.Context) error {
	return fetch(ctx, s, sliceAdminBalance, s.api.AdminBalance, func(st *State, rows []models.AdminBalanceRow) {
		st.AdminBalance.Items, st.AdminBalance.Total = rows, len(rows)
	})
}

// AddBalance rejects an incomplete form without a network call
func (s *Store) AddBalance(ctx context.Context, form rules.BalanceForm) error {
	if err := rules.ValidateBalanceForm(form); err != nil {
		s.notify(models.NotifyWarning, err.Error())
		return err
	}
	return s.mutate(ctx, "addBalance", "Balance added", func(ctx context.Context) error {
		_, err := s.api.AddBalance(ctx, form.Request())
		return err
	}, func(ctx context.Context) error { return s.FetchBalance(ctx, form.UserID) })
}

func (s *Store) EditBalance(ctx context.Context, userID, transactionID int64, req models.EditBalanceRequest) error {
	return s.mutate(ctx, "editBalance", "Balance updated", func(ctx context.Context) error {
		_, err := s.api.EditBalance(ctx, transactionID, req)
		return err
	}, func(ctx context.Context) error { return s.FetchBalance(ctx, userID) })
}

func (s *Store) DeleteBalance(ctx context.Context, userID, transactionID int64) error {
	return s.mutate(ctx, "deleteBalance", "Transaction deleted", func(ctx context.Context) error {
		return s.api.DeleteBalance(ctx, transactionID)
	}, func(ctx context.Context) error { return s.FetchBalance(ctx, userID) })
}

// Tokens

func (s *Store) FetchTokens(ctx context.Context, userID int64) error {
	get := func(ctx context.Context) ([]models.Token, error) { return s.api.Tokens(ctx, userID) }
	return fetch(ctx, s, sliceTokens, get, func(st *State, tokens []models.Token) {
		st.Tokens.Items, st.Tokens.Total = tokens, len(tokens)
	})
}

func (s *Store) FetchAllTokens(ctx context.Context) error {
	return fetch(ctx, s, sliceAdminTokens, s.api.AllTokens, func(st *State, tokens []models.Token) {
		st.AdminTokens.Items, st.AdminTokens.Total = tokens, len(tokens)
	})
}

// CreateToken issues a token and re-fetches the owner's token list
func (s *Store) CreateToken(ctx context.Context, form rules.TokenForm) error {
	if err := rules.ValidateTokenForm(form); err != nil {
		s.notify(models.NotifyWarning, err.Error())
		return err
	}
	return s.mutate(ctx, "createToken", "Token created", func(ctx context.Context) error {
		_, err := s.api.CreateToken(ctx, form.Request())
		return err
	}, func(ctx context.Context) error { return s.FetchTokens(ctx, form.UserID) })
}

// UpdateToken records billing details; req.UserID names the list to refresh
func (s *Store) UpdateToken(ctx context.Context, req models.UpdateTokenRequest) error {
	return s.mutate(ctx, "updateToken", "Token updated", func(ctx context.Context) error {
		_, err := s.api.UpdateToken(ctx, req)
		return err
	}, s.tokenRefetch(req.UserID))
}

func (s *Store) ConfirmToken(ctx context.Context, userID int64, req models.ConfirmTokenRequest) error {
	return s.mutate(ctx, "confirmToken", "Token confirmed", func(ctx context.Context) error {
		_, err := s.api.ConfirmToken(ctx, req)
		return err
	}, s.tokenRefetch(userID))
}

func (s *Store) DeleteToken(ctx context.Context, userID, tokenID int64) error {
	return s.mutate(ctx, "deleteToken", "Token deleted", func(ctx context.Context) error {
		return s.api.DeleteToken(ctx, tokenID)
	}, s.tokenRefetch(userID))
}

// tokenRefetch refreshes the owner's list, or the admin list when no owner is known
func (s *Store) tokenRefetch(userID int64) func(context.Context) error {
	return func(ctx context.Context) error {
		if userID == 0 {
			return s.FetchAllTokens(ctx)
		}
		return s.FetchTokens(ctx, userID)
	}
}

// Bedash

func (s *Store) FetchBedash(ctx context.Context) error {
	return fetch(ctx, s, sliceBedash, s.api.Bedash, func(st *State, items []models.BedashItem) {
		st.Bedash.Items, st.Bedash.Total = items, len(items)
	})
}

func (s *Store) AddBedash(ctx context.Context, form rules.BedashForm) error {
	if err := rules.ValidateBedashForm(form); err != nil {
		s.notify(models.NotifyWarning, err.Error())
		return err
	}
	return s.mutate(ctx, "addBedash", "Message added", func(ctx context.Context) error {
		_, err := s.api.AddBedash(ctx, form.Request())
		return err
	}, s.FetchBedash)
}

// ConfirmBedash completes a message and stamps the confirmation locally so the
// pending page can count its window down
func (s *Store) ConfirmBedash(ctx context.Context, bedashID int64) error {
	return s.mutate(ctx, "confirmBedash", "Message confirmed", func(ctx context.Context) error {
		item, err := s.api.ConfirmBedash(ctx, bedashID)
		if err != nil {
			return err
		}
		at := s.now()
		if item.ConfirmedAt != nil {
			at = *item.ConfirmedAt
		}
		if err := storage.StampConfirmed(s.prefs, bedashID, at); err != nil {
			s.logger.Error("error saving confirmation time for %d: %v", bedashID, err)
		}
		return nil
	}, s.FetchBedash)
}
