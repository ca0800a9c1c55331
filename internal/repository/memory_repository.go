package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
)

// MemoryRepository keeps every table in process memory. It backs tests and
// the DB_DRIVER=memory development mode.
type MemoryRepository struct {
	mu           sync.RWMutex
	users        map[int64]models.User
	transactions map[int64]models.Transaction
	tokens       map[int64]models.Token
	bedash       map[int64]models.BedashItem
	nextID       int64
}

// Verify interface compliance
var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:        make(map[int64]models.User),
		transactions: make(map[int64]models.Transaction),
		tokens:       make(map[int64]models.Token),
		bedash:       make(map[int64]models.BedashItem),
	}
}

// Reset drops every record
func (r *MemoryRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[int64]models.User)
	r.transactions = make(map[int64]models.Transaction)
	r.tokens = make(map[int64]models.Token)
	r.bedash = make(map[int64]models.BedashItem)
}

func (r *MemoryRepository) id() int64 {
	r.nextID++
	return r.nextID
}

// User repository methods
func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(user.Email, 0) {
		return fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
	}
	now := time.Now().UTC()
	user.ID = r.id()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *MemoryRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryRepository) UpdateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil
	}
	if r.emailTaken(user.Email, user.ID) {
		return fmt.Errorf("email %s: %w", user.Email, ErrDuplicate)
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

// emailTaken reports whether an account other than except uses email; callers hold mu
func (r *MemoryRepository) emailTaken(email string, except int64) bool {
	for _, u := range r.users {
		if u.ID != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) DeleteUser(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tid, t := range r.tokens {
		if t.UserID == id {
			delete(r.tokens, tid)
		}
	}
	for tid, t := range r.transactions {
		if t.UserID == id {
			delete(r.transactions, tid)
		}
	}
	for bid, b := range r.bedash {
		if b.UserID == id {
			delete(r.bedash, bid)
		}
	}
	delete(r.users, id)
	return nil
}

// Balance transaction repository methods
func (r *MemoryRepository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	t.ID = r.id()
	r.transactions[t.ID] = *t
	return nil
}

func (r *MemoryRepository) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.transactions[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *MemoryRepository) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[t.ID]; ok {
		r.transactions[t.ID] = *t
	}
	return nil
}

func (r *MemoryRepository) DeleteTransaction(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transactions, id)
	return nil
}

func (r *MemoryRepository) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var txs []models.Transaction
	for _, t := range r.transactions {
		if t.UserID == userID {
			txs = append(txs, t)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Date.Equal(txs[j].Date) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].Date.After(txs[j].Date)
	})
	return txs, nil
}

// Token repository methods
func (r *MemoryRepository) CreateToken(ctx context.Context, t *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC().Truncate(time.Microsecond)
	t.ID = r.id()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tokens[t.ID] = *t
	return nil
}

func (r *MemoryRepository) GetToken(ctx context.Context, id int64) (*models.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tokens[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *MemoryRepository) UpdateToken(ctx context.Context, t *models.Token, from models.TokenStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tokens[t.ID]
	if !ok || stored.Status != from || !stored.UpdatedAt.Equal(t.UpdatedAt) {
		return ErrStatusChanged
	}
	t.UpdatedAt = nextStamp(stored.UpdatedAt)
	r.tokens[t.ID] = *t
	return nil
}

func (r *MemoryRepository) DeleteToken(ctx context.Context, id int64, from models.TokenStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tokens[id]
	if !ok || stored.Status != from {
		return ErrStatusChanged
	}
	delete(r.tokens, id)
	return nil
}

func (r *MemoryRepository) ListTokensByUser(ctx context.Context, userID int64) ([]models.Token, error) {
	return r.listTokens(func(t models.Token) bool { return t.UserID == userID }), nil
}

func (r *MemoryRepository) ListTokens(ctx context.Context) ([]models.Token, error) {
	return r.listTokens(func(models.Token) bool { return true }), nil
}

func (r *MemoryRepository) listTokens(keep func(models.Token) bool) []models.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tokens []models.Token
	for _, t := range r.tokens {
		if keep(t) {
			tokens = append(tokens, t)
		}
	}
	// newest first; ids break ties between tokens created in the same instant
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].CreatedAt.Equal(tokens[j].CreatedAt) {
			return tokens[i].ID > tokens[j].ID
		}
		return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
	})
	return tokens
}

// Bedash repository methods
func (r *MemoryRepository) CreateBedash(ctx context.Context, b *models.BedashItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = r.id()
	b.CreatedAt = time.Now().UTC()
	r.bedash[b.ID] = *b
	return nil
}

func (r *MemoryRepository) GetBedash(ctx context.Context, id int64) (*models.BedashItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.bedash[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r *MemoryRepository) UpdateBedash(ctx context.Context, b *models.BedashItem, from models.BedashStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bedash[b.ID]
	if !ok || stored.Status != from {
		return ErrStatusChanged
	}
	r.bedash[b.ID] = *b
	return nil
}

func (r *MemoryRepository) ListBedash(ctx context.Context, userID int64) ([]models.BedashItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []models.BedashItem
	for _, b := range r.bedash {
		if userID == 0 || b.UserID == userID {
			items = append(items, b)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].TargetDate.Equal(items[j].TargetDate) {
			return items[i].ID < items[j].ID
		}
		return items[i].TargetDate.Before(items[j].TargetDate)
	})
	return items, nil
}
