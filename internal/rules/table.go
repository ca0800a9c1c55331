package rules

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/shopspring/decimal"
)

// PageSizes are the page sizes offered by every table
var PageSizes = []int{5, 10, 25}

// Search keeps rows where any of fields(row) contains query, case-insensitively.
// Field values are stringified first, so nil and typed-nil pointers never panic.
func Search[T any](rows []T, query string, fields func(T) []any) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rows
	}
	matched := make([]T, 0, len(rows))
	for _, row := range rows {
		for _, f := range fields(row) {
			if strings.Contains(strings.ToLower(stringify(f)), q) {
				matched = append(matched, row)
				break
			}
		}
	}
	return matched
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return stringify(rv.Elem().Interface())
	}
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// TokenFields are the searchable columns of the token table
func TokenFields(t models.Token) []any {
	return []any{t.CustomerName, t.TruckNumber, t.MaterialType, t.Status}
}

// UserFields are the searchable columns of the users table
func UserFields(u models.User) []any {
	return []any{u.Name, u.Email, u.Role}
}

// BedashFields are the searchable columns of the bedash table
func BedashFields(b models.BedashItem) []any {
	return []any{b.UserName, b.Status, b.MaterialType}
}

// TransactionFields are the searchable columns of the balance table
func TransactionFields(t models.Transaction) []any {
	return []any{t.PaymentMode, t.BankName, t.AccountHolder, t.ReferenceNumber, t.TotalAmount}
}

// SortState is a column-header sort toggle. The empty column is the default
// order, newest first; a selected column sorts descending by that value.
type SortState struct {
	Column string
}

// Toggle selects col, or returns to the default order if col is already selected
func (s *SortState) Toggle(col string) {
	if s.Column == col {
		s.Column = ""
		return
	}
	s.Column = col
}

func (s SortState) IsDefault() bool { return s.Column == "" }

// SortRows returns a sorted copy of rows. The default order is date
// descending; a known column sorts by its numeric key descending. Unknown
// columns fall back to the default order.
func SortRows[T any](rows []T, s SortState, date func(T) time.Time, columns map[string]func(T) decimal.Decimal) []T {
	sorted := make([]T, len(rows))
	copy(sorted, rows)
	key, ok := columns[s.Column]
	if s.IsDefault() || !ok {
		sort.SliceStable(sorted, func(i, j int) bool {
			return date(sorted[i]).After(date(sorted[j]))
		})
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]).GreaterThan(key(sorted[j]))
	})
	return sorted
}

// TransactionColumns are the sortable numeric columns of the balance table
var TransactionColumns = map[string]func(models.Transaction) decimal.Decimal{
	"flyashAmount": func(t models.Transaction) decimal.Decimal { return t.FlyashAmount },
	"bedashAmount": func(t models.Transaction) decimal.Decimal { return t.BedashAmount },
	"totalAmount":  func(t models.Transaction) decimal.Decimal { return t.TotalAmount },
	"flyashTons":   func(t models.Transaction) decimal.Decimal { return t.FlyashTons },
	"bedashTons":   func(t models.Transaction) decimal.Decimal { return t.BedashTons },
}

// TokenColumns are the sortable numeric columns of the token table
var TokenColumns = map[string]func(models.Token) decimal.Decimal{
	"weight":       func(t models.Token) decimal.Decimal { return t.Weight },
	"totalAmount":  func(t models.Token) decimal.Decimal { return t.TotalAmount },
	"paidAmount":   func(t models.Token) decimal.Decimal { return t.PaidAmount },
	"carryForward": func(t models.Token) decimal.Decimal { return t.CarryForward },
}

func TransactionDate(t models.Transaction) time.Time { return t.Date }

func TokenDate(t models.Token) time.Time { return t.CreatedAt }

// Pager tracks the page of a client-side paginated table
type Pager struct {
	Page int
	Size int
}

func NewPager() Pager { return Pager{Size: PageSizes[0]} }

// SetSize changes the page size and goes back to the first page
func (p *Pager) SetSize(size int) {
	if size <= 0 {
		size = PageSizes[0]
	}
	p.Size = size
	p.Page = 0
}

func (p *Pager) SetPage(page int) {
	if page < 0 {
		page = 0
	}
	p.Page = page
}

// Paginate returns the rows of the current page and the unpaged total
func Paginate[T any](rows []T, p Pager) ([]T, int) {
	total := len(rows)
	size := p.Size
	if size <= 0 {
		size = PageSizes[0]
	}
	start := p.Page * size
	if start >= total || start < 0 {
		return []T{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return rows[start:end], total
}
