package rules_test

import (
	"testing"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/bricks-admin/dashboard/internal/rules"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTons(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"0", "0"},
		{"180", "1"},
		{"1000", "5.56"},
		{"90", "0.5"},
		{"1", "0.01"},
		{"27000", "150"},
	}
	for _, tc := range cases {
		got := rules.Tons(dec(tc.amount))
		assert.True(t, got.Equal(dec(tc.want)), "tons(%s) = %s, want %s", tc.amount, got, tc.want)
	}
}

func TestTotalTons(t *testing.T) {
	got := rules.TotalTons(dec("1000"), dec("360"))
	assert.True(t, got.Equal(dec("7.56")), "got %s", got)
}

func TestTokenTotalAndCarry(t *testing.T) {
	total := rules.TokenTotal(dec("27"), dec("500"))
	assert.True(t, total.Equal(dec("5360")))
	assert.True(t, rules.CarryForward(dec("5000"), total).Equal(dec("-360")))
}

func TestBalance(t *testing.T) {
	b := rules.Balance(dec("100"), dec("27.5"))
	assert.True(t, b.Remaining.Equal(dec("72.5")))
}

func TestPossibleTokens(t *testing.T) {
	tokens := []models.Token{
		{ID: 1, UserID: 7, Status: models.TokenPending},
		{ID: 2, UserID: 7, Status: models.TokenPending},
		{ID: 3, UserID: 7, Status: models.TokenCompleted},
		{ID: 4, UserID: 8, Status: models.TokenPending},
	}

	assert.Equal(t, 2, rules.PendingCount(tokens, 7))
	// 150 - 2*27 = 96 -> 3 more tokens
	assert.Equal(t, 3, rules.PossibleTokens(dec("150"), tokens, 7))
	assert.Equal(t, 0, rules.PossibleTokens(dec("50"), tokens, 7))
	assert.Equal(t, 1, rules.PossibleTokens(dec("27"), nil, 7))
}

func TestNegativeCarry(t *testing.T) {
	tokens := []models.Token{
		{ID: 1, CustomerName: "Acme", CarryForward: dec("-200")},
		{ID: 2, CustomerName: " acme ", CarryForward: dec("-50.5")},
		{ID: 3, CustomerName: "Acme", CarryForward: dec("300")},
		{ID: 4, CustomerName: "Other", CarryForward: dec("-999")},
	}
	assert.True(t, rules.NegativeCarry(tokens, "ACME").Equal(dec("-250.5")))
	assert.True(t, rules.NegativeCarry(tokens, "Nobody").IsZero())
}

func TestCustomerNames(t *testing.T) {
	tokens := []models.Token{
		{CustomerName: "Zed"}, {CustomerName: "acme"}, {CustomerName: "ACME"}, {CustomerName: "  "},
	}
	assert.Equal(t, []string{"Zed", "acme"}, rules.CustomerNames(tokens))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, models.TokenPending.CanAdvanceTo(models.TokenUpdated))
	assert.True(t, models.TokenUpdated.CanAdvanceTo(models.TokenCompleted))
	assert.True(t, models.TokenUpdated.CanAdvanceTo(models.TokenUpdated))
	assert.False(t, models.TokenPending.CanAdvanceTo(models.TokenCompleted))
	assert.False(t, models.TokenCompleted.CanAdvanceTo(models.TokenPending))
	assert.False(t, models.TokenCompleted.CanAdvanceTo(models.TokenUpdated))
	assert.False(t, models.TokenUpdated.CanAdvanceTo(models.TokenPending))

	assert.True(t, models.BedashPending.CanAdvanceTo(models.BedashCompleted))
	assert.False(t, models.BedashCompleted.CanAdvanceTo(models.BedashPending))
}
