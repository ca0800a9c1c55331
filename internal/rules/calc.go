package rules

import (
	"sort"
	"strings"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/shopspring/decimal"
)

const (
	// RatePerTonValue is the fixed price of one ton of either material
	RatePerTonValue = 180
	// TonsPerToken is the tonnage reserved by one pending token
	TonsPerToken = 27
)

var (
	RatePerTon   = decimal.NewFromInt(RatePerTonValue)
	tokenTonnage = decimal.NewFromInt(TonsPerToken)
)

// Tons converts a currency amount to tons at the fixed rate, rounded to 2 places
func Tons(amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}
	return amount.Div(RatePerTon).Round(2)
}

// TotalTons sums the per-material tons of the given amounts
func TotalTons(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(Tons(a))
	}
	return total.Round(2)
}

// TokenTotal bills a token: weight at the fixed rate plus commission
func TokenTotal(weight, commission decimal.Decimal) decimal.Decimal {
	return weight.Mul(RatePerTon).Add(commission)
}

// CarryForward is the signed remainder of a payment; negative means the customer owes
func CarryForward(paid, total decimal.Decimal) decimal.Decimal {
	return paid.Sub(total)
}

// Balance builds a material account from total and used tonnage
func Balance(total, used decimal.Decimal) models.MaterialBalance {
	return models.MaterialBalance{Total: total, Used: used, Remaining: total.Sub(used)}
}

// PendingCount counts pending tokens owned by userID
func PendingCount(tokens []models.Token, userID int64) int {
	n := 0
	for _, t := range tokens {
		if t.UserID == userID && t.Status == models.TokenPending {
			n++
		}
	}
	return n
}

// PossibleTokens estimates how many more tokens userID can be issued before
// remainingTons runs out, after reserving TonsPerToken for each pending token.
func PossibleTokens(remainingTons decimal.Decimal, tokens []models.Token, userID int64) int {
	reserved := decimal.NewFromInt(int64(PendingCount(tokens, userID))).Mul(tokenTonnage)
	available := remainingTons.Sub(reserved)
	if available.Sign() <= 0 {
		return 0
	}
	return int(available.Div(tokenTonnage).Floor().IntPart())
}

// NegativeCarry sums the negative carry-forward values of a customer's tokens.
// Customer names match case-insensitively after trimming.
func NegativeCarry(tokens []models.Token, customer string) decimal.Decimal {
	want := normalizeName(customer)
	sum := decimal.Zero
	for _, t := range tokens {
		if normalizeName(t.CustomerName) != want {
			continue
		}
		if t.CarryForward.Sign() < 0 {
			sum = sum.Add(t.CarryForward)
		}
	}
	return sum
}

// CustomerNames lists distinct customer names seen in tokens, sorted
func CustomerNames(tokens []models.Token) []string {
	seen := make(map[string]string)
	for _, t := range tokens {
		name := strings.TrimSpace(t.CustomerName)
		if name == "" {
			continue
		}
		key := normalizeName(name)
		if _, ok := seen[key]; !ok {
			seen[key] = name
		}
	}
	names := make([]string, 0, len(seen))
	for _, name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
