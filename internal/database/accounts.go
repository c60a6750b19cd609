package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"easydrive/internal/models"
)

const accountColumns = `id, email, first_name, last_name, phone, address, is_admin, created_at, updated_at`

func (db *DB) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (email, first_name, last_name, phone, address, is_admin, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		account.Email, account.FirstName, account.LastName,
		account.Phone, account.Address, account.IsAdmin, now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (db *DB) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	account, err := scanAccount(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetAccountByEmail matches case-insensitively via the column collation.
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	account, err := scanAccount(db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID, &account.Email, &account.FirstName, &account.LastName,
		&account.Phone, &account.Address, &account.IsAdmin,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}
