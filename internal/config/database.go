package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			date TIMESTAMP NOT NULL,
			flyash_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
			bedash_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
			total_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
			flyash_tons NUMERIC(14,2) NOT NULL DEFAULT 0,
			bedash_tons NUMERIC(14,2) NOT NULL DEFAULT 0,
			payment_mode VARCHAR(10) NOT NULL,
			bank_name VARCHAR(255) NOT NULL DEFAULT '',
			account_holder VARCHAR(255) NOT NULL DEFAULT '',
			reference_number VARCHAR(255) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS tokens (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			customer_name VARCHAR(255) NOT NULL,
			truck_number VARCHAR(64) NOT NULL DEFAULT '',
			material_type VARCHAR(16) NOT NULL,
			weight NUMERIC(14,2) NOT NULL DEFAULT 0,
			rate_per_ton NUMERIC(14,2) NOT NULL,
			commission NUMERIC(14,2) NOT NULL DEFAULT 0,
			total_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
			paid_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
			carry_forward NUMERIC(14,2) NOT NULL DEFAULT 0,
			status VARCHAR(16) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			confirmed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS bedash_items (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			material_type VARCHAR(16) NOT NULL,
			amount NUMERIC(14,2) NOT NULL,
			remaining_tons NUMERIC(14,2) NOT NULL,
			status VARCHAR(16) NOT NULL,
			custom_date DATE,
			target_date DATE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			confirmed_at TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_tokens_customer ON tokens(LOWER(customer_name))",
		"CREATE INDEX IF NOT EXISTS idx_bedash_user_id ON bedash_items(user_id)",
	}

	for _, idx := range indexes {
		_, err := db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
