package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
)

var (
	// ErrStatusChanged is returned by a guarded write when the record is no
	// longer in the status the caller read
	ErrStatusChanged = errors.New("record status changed")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("duplicate key")
)

// Repository interface defines the methods that any repository implementation must satisfy.
// Lookups of a missing record return nil with a nil error.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	// Balance transaction operations
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)

	// Token operations
	CreateToken(ctx context.Context, token *models.Token) error
	GetToken(ctx context.Context, id int64) (*models.Token, error)
	// UpdateToken writes token only while the stored row still has status from
	// and the UpdatedAt the caller read; it stamps a new UpdatedAt
	UpdateToken(ctx context.Context, token *models.Token, from models.TokenStatus) error
	// DeleteToken removes the token only while its stored status is still from
	DeleteToken(ctx context.Context, id int64, from models.TokenStatus) error
	ListTokensByUser(ctx context.Context, userID int64) ([]models.Token, error)
	ListTokens(ctx context.Context) ([]models.Token, error)

	// Bedash operations
	CreateBedash(ctx context.Context, item *models.BedashItem) error
	GetBedash(ctx context.Context, id int64) (*models.BedashItem, error)
	// UpdateBedash writes item only while its stored status is still from
	UpdateBedash(ctx context.Context, item *models.BedashItem, from models.BedashStatus) error
	// ListBedash lists the items of userID, or every item when userID is 0
	ListBedash(ctx context.Context, userID int64) ([]models.BedashItem, error)
}

// nextStamp returns a write time strictly after prev at the microsecond
// precision Postgres stores, so every token write changes updated_at
func nextStamp(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}
