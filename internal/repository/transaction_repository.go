package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pos-register/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrTransactionExists   = errors.New("transaction id already exists")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// uniqueViolation is the SQLSTATE for a unique-constraint violation.
const uniqueViolation = "23505"

// TransactionRepository persists settled sales. Save is the only write
// path into the transaction tables and is fully transactional: after it
// returns, either the header and every line exist, or nothing does.
type TransactionRepository interface {
	Save(ctx context.Context, transaction *domain.Transaction, lines []domain.TransactionLine) error
	FindByID(ctx context.Context, id string) (*domain.Transaction, []domain.TransactionLine, error)
}

type transactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository
func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Save writes the header and all lines inside one database transaction.
// A primary-key collision on the transaction id surfaces as
// ErrTransactionExists so the caller can retry with a fresh identifier;
// any other failure rolls back everything.
func (r *transactionRepository) Save(ctx context.Context, transaction *domain.Transaction, lines []domain.TransactionLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	headerQuery := `
		INSERT INTO transactions (id, store_code, terminal_id, cashier_code, settled_at,
			total_amount_excl_tax, total_tax_amount, total_amount_incl_tax, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.ExecContext(
		ctx,
		headerQuery,
		transaction.ID,
		transaction.StoreCode,
		transaction.TerminalID,
		transaction.CashierCode,
		transaction.SettledAt,
		transaction.AmountExclTax,
		transaction.TaxAmount,
		transaction.AmountInclTax,
		transaction.Note,
		transaction.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrTransactionExists
		}
		return fmt.Errorf("failed to insert transaction header: %w", err)
	}

	lineQuery := `
		INSERT INTO transaction_lines (id, transaction_id, seq, barcode, product_name,
			unit_price, quantity, subtotal_excl_tax, tax_code, tax_rate, tax_amount,
			subtotal_incl_tax, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for _, line := range lines {
		_, err = tx.ExecContext(
			ctx,
			lineQuery,
			line.ID,
			line.TransactionID,
			line.Seq,
			line.Barcode,
			line.ProductName,
			line.UnitPrice,
			line.Quantity,
			line.SubtotalExclTax,
			line.TaxCode,
			line.TaxRate,
			line.TaxAmount,
			line.SubtotalInclTax,
			line.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrTransactionExists
			}
			return fmt.Errorf("failed to insert transaction line %d: %w", line.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID retrieves a settled transaction with its lines ordered by
// sequence number.
func (r *transactionRepository) FindByID(ctx context.Context, id string) (*domain.Transaction, []domain.TransactionLine, error) {
	headerQuery := `
		SELECT id, store_code, terminal_id, cashier_code, settled_at,
			total_amount_excl_tax, total_tax_amount, total_amount_incl_tax, note, created_at
		FROM transactions
		WHERE id = $1
	`

	transaction := &domain.Transaction{}
	err := r.db.QueryRowContext(ctx, headerQuery, id).Scan(
		&transaction.ID,
		&transaction.StoreCode,
		&transaction.TerminalID,
		&transaction.CashierCode,
		&transaction.SettledAt,
		&transaction.AmountExclTax,
		&transaction.TaxAmount,
		&transaction.AmountInclTax,
		&transaction.Note,
		&transaction.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, ErrTransactionNotFound
		}
		return nil, nil, fmt.Errorf("failed to find transaction by ID: %w", err)
	}

	linesQuery := `
		SELECT id, transaction_id, seq, barcode, product_name, unit_price, quantity,
			subtotal_excl_tax, tax_code, tax_rate, tax_amount, subtotal_incl_tax, created_at
		FROM transaction_lines
		WHERE transaction_id = $1
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, linesQuery, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transaction lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.TransactionLine{}
	for rows.Next() {
		var line domain.TransactionLine
		err := rows.Scan(
			&line.ID,
			&line.TransactionID,
			&line.Seq,
			&line.Barcode,
			&line.ProductName,
			&line.UnitPrice,
			&line.Quantity,
			&line.SubtotalExclTax,
			&line.TaxCode,
			&line.TaxRate,
			&line.TaxAmount,
			&line.SubtotalInclTax,
			&line.CreatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction line: %w", err)
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction lines: %w", err)
	}

	return transaction, lines, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
