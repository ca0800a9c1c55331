package store

import (
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/rules"
	"github.com/bricks-admin/dashboard/internal/storage"
	"github.com/shopspring/decimal"
)

// VisibleUsers is the user list filtered for the signed-in role
func (s *Store) VisibleUsers() []models.User {
	st := s.Snapshot()
	return rules.VisibleUsers(st.Auth.User, st.Users.Items)
}

// PendingBedash lists the messages still shown on the pending page
func (s *Store) PendingBedash(now time.Time) []models.BedashItem {
	return rules.FilterBedash(s.Snapshot().Bedash.Items, storage.ConfirmTimes(s.prefs), now)
}

// PendingTokens lists the tokens still shown on the pending page. Staff work
// from the admin list, users from their own.
func (s *Store) PendingTokens(now time.Time) []models.Token {
	return rules.FilterTokens(s.tokenPool(), nil, now)
}

// PossibleTokensFor estimates how many more tokens userID can be issued
func (s *Store) PossibleTokensFor(userID int64) int {
	st := s.Snapshot()
	remaining := decimal.Zero
	found := false
	for _, row := range st.AdminBalance.Items {
		if row.User.ID == userID {
			remaining, found = row.TotalTons, true
			break
		}
	}
	if !found && st.Balance.Summary != nil && st.Balance.Summary.User.ID == userID {
		remaining = st.Balance.Summary.RemainingTons()
	}
	return rules.PossibleTokens(remaining, s.tokenPool(), userID)
}

// NegativeCarryFor sums what customer still owes across the loaded tokens
func (s *Store) NegativeCarryFor(customer string) decimal.Decimal {
	return rules.NegativeCarry(s.tokenPool(), customer)
}

// CustomerNames suggests customer names seen on loaded tokens
func (s *Store) CustomerNames() []string {
	return rules.CustomerNames(s.tokenPool())
}

func (s *Store) tokenPool() []models.Token {
	st := s.Snapshot()
	if st.Auth.User.Role.IsStaff() && len(st.AdminTokens.Items) > 0 {
		return st.AdminTokens.Items
	}
	return st.Tokens.Items
}
