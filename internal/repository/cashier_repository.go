package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pos-register/internal/domain"
)

var (
	ErrCashierNotFound = errors.New("cashier not found")
)

// CashierRepository defines the interface for cashier master data access
type CashierRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Cashier, error)
}

type cashierRepository struct {
	db *sql.DB
}

// NewCashierRepository creates a new instance of CashierRepository
func NewCashierRepository(db *sql.DB) CashierRepository {
	return &cashierRepository{db: db}
}

// FindByCode retrieves an active cashier by code using parameterized queries
func (r *cashierRepository) FindByCode(ctx context.Context, code string) (*domain.Cashier, error) {
	query := `
		SELECT code, name, password_hash, active, created_at, updated_at
		FROM cashiers
		WHERE code = $1 AND active
	`

	cashier := &domain.Cashier{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&cashier.Code,
		&cashier.Name,
		&cashier.PasswordHash,
		&cashier.Active,
		&cashier.CreatedAt,
		&cashier.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCashierNotFound
		}
		return nil, fmt.Errorf("failed to find cashier by code: %w", err)
	}

	return cashier, nil
}
