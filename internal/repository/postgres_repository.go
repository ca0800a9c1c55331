package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for a UNIQUE constraint failure
const uniqueViolation = "23505"

const (
	userColumns        = `id, name, email, password, role, is_active, created_by, created_at, updated_at`
	transactionColumns = `id, user_id, date, flyash_amount, bedash_amount, total_amount, flyash_tons, bedash_tons,
		payment_mode, bank_name, account_holder, reference_number`
	tokenColumns = `id, user_id, customer_name, truck_number, material_type, weight, rate_per_ton, commission,
		total_amount, paid_amount, carry_forward, status, created_at, updated_at, confirmed_at`
	bedashColumns = `id, user_id, material_type, amount, remaining_tons, status, custom_date, target_date,
		created_at, confirmed_at`
)

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// Verify interface compliance
var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// getOne runs a single-row query and maps sql.ErrNoRows to a nil result
func getOne[T any](ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (*T, error) {
	var out T
	err := db.GetContext(ctx, &out, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (name, email, password, role, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Password, user.Role, user.IsActive, user.CreatedBy,
		user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	return duplicateEmail(err, user.Email)
}

// duplicateEmail maps a unique violation on users.email to ErrDuplicate
func duplicateEmail(err error, email string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("email %s: %w", email, ErrDuplicate)
	}
	return err
}

// guarded turns a write that matched no row into ErrStatusChanged
func guarded(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return getOne[models.User](ctx, r.db, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return getOne[models.User](ctx, r.db, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE users SET name = $1, email = $2, password = $3, role = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Name, user.Email, user.Password, user.Role, user.IsActive, user.UpdatedAt, user.ID)
	return duplicateEmail(err, user.Email)
}

func (r *PostgresRepository) DeleteUser(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	// Delete owned records first so the user row goes last
	for _, stmt := range []string{
		`DELETE FROM bedash_items WHERE user_id = $1`,
		`DELETE FROM tokens WHERE user_id = $1`,
		`DELETE FROM transactions WHERE user_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Balance transaction repository methods
func (r *PostgresRepository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	query := `
		INSERT INTO transactions (user_id, date, flyash_amount, bedash_amount, total_amount, flyash_tons, bedash_tons,
			payment_mode, bank_name, account_holder, reference_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		t.UserID, t.Date, t.FlyashAmount, t.BedashAmount, t.TotalAmount, t.FlyashTons, t.BedashTons,
		t.PaymentMode, t.BankName, t.AccountHolder, t.ReferenceNumber).Scan(&t.ID)
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	return getOne[models.Transaction](ctx, r.db, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	query := `
		UPDATE transactions SET flyash_amount = $1, bedash_amount = $2, total_amount = $3, flyash_tons = $4,
			bedash_tons = $5, payment_mode = $6, bank_name = $7, account_holder = $8, reference_number = $9
		WHERE id = $10
	`
	_, err := r.db.ExecContext(ctx, query,
		t.FlyashAmount, t.BedashAmount, t.TotalAmount, t.FlyashTons, t.BedashTons,
		t.PaymentMode, t.BankName, t.AccountHolder, t.ReferenceNumber, t.ID)
	return err
}

func (r *PostgresRepository) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.SelectContext(ctx, &txs,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// Token repository methods
func (r *PostgresRepository) CreateToken(ctx context.Context, t *models.Token) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	t.CreatedAt = now
	t.UpdatedAt = now
	query := `
		INSERT INTO tokens (user_id, customer_name, truck_number, material_type, weight, rate_per_ton, commission,
			total_amount, paid_amount, carry_forward, status, created_at, updated_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		t.UserID, t.CustomerName, t.TruckNumber, t.MaterialType, t.Weight, t.RatePerTon, t.Commission,
		t.TotalAmount, t.PaidAmount, t.CarryForward, t.Status, t.CreatedAt, t.UpdatedAt, t.ConfirmedAt).Scan(&t.ID)
}

func (r *PostgresRepository) GetToken(ctx context.Context, id int64) (*models.Token, error) {
	return getOne[models.Token](ctx, r.db, `SELECT `+tokenColumns+` FROM tokens WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdateToken(ctx context.Context, t *models.Token, from models.TokenStatus) error {
	read := t.UpdatedAt
	stamp := nextStamp(read)
	query := `
		UPDATE tokens SET truck_number = $1, weight = $2, rate_per_ton = $3, commission = $4, total_amount = $5,
			paid_amount = $6, carry_forward = $7, status = $8, updated_at = $9, confirmed_at = $10
		WHERE id = $11 AND status = $12 AND updated_at = $13
	`
	err := guarded(r.db.ExecContext(ctx, query,
		t.TruckNumber, t.Weight, t.RatePerTon, t.Commission, t.TotalAmount,
		t.PaidAmount, t.CarryForward, t.Status, stamp, t.ConfirmedAt, t.ID, from, read))
	if err == nil {
		t.UpdatedAt = stamp
	}
	return err
}

func (r *PostgresRepository) DeleteToken(ctx context.Context, id int64, from models.TokenStatus) error {
	return guarded(r.db.ExecContext(ctx, `DELETE FROM tokens WHERE id = $1 AND status = $2`, id, from))
}

func (r *PostgresRepository) ListTokensByUser(ctx context.Context, userID int64) ([]models.Token, error) {
	var tokens []models.Token
	err := r.db.SelectContext(ctx, &tokens,
		`SELECT `+tokenColumns+` FROM tokens WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *PostgresRepository) ListTokens(ctx context.Context) ([]models.Token, error) {
	var tokens []models.Token
	err := r.db.SelectContext(ctx, &tokens, `SELECT `+tokenColumns+` FROM tokens ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Bedash repository methods
func (r *PostgresRepository) CreateBedash(ctx context.Context, b *models.BedashItem) error {
	b.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO bedash_items (user_id, material_type, amount, remaining_tons, status, custom_date, target_date,
			created_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		b.UserID, b.MaterialType, b.Amount, b.RemainingTons, b.Status, b.CustomDate, b.TargetDate,
		b.CreatedAt, b.ConfirmedAt).Scan(&b.ID)
}

func (r *PostgresRepository) GetBedash(ctx context.Context, id int64) (*models.BedashItem, error) {
	return getOne[models.BedashItem](ctx, r.db, `SELECT `+bedashColumns+` FROM bedash_items WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdateBedash(ctx context.Context, b *models.BedashItem, from models.BedashStatus) error {
	return guarded(r.db.ExecContext(ctx,
		`UPDATE bedash_items SET remaining_tons = $1, status = $2, confirmed_at = $3 WHERE id = $4 AND status = $5`,
		b.RemainingTons, b.Status, b.ConfirmedAt, b.ID, from))
}

func (r *PostgresRepository) ListBedash(ctx context.Context, userID int64) ([]models.BedashItem, error) {
	query := `SELECT ` + bedashColumns + ` FROM bedash_items`
	args := []interface{}{}

	if userID > 0 {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}

	query += ` ORDER BY target_date ASC, id ASC`

	var items []models.BedashItem
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		return nil, err
	}
	return items, nil
}
