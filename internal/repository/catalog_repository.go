package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pos-register/internal/domain"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrTaxClassNotFound = errors.New("tax class not found")
)

// CatalogRepository is the read-only lookup service over the product
// and tax masters. Inactive rows are treated as not found: a register
// must never sell a delisted product or apply a retired rate.
type CatalogRepository interface {
	FindByBarcode(ctx context.Context, barcode string) (*domain.Product, *domain.TaxClass, error)
	FindTaxClass(ctx context.Context, code string) (*domain.TaxClass, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// FindByBarcode resolves a scanned barcode to an active product joined
// with its active tax class.
func (r *catalogRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Product, *domain.TaxClass, error) {
	query := `
		SELECT p.barcode, p.name, p.unit_price, p.tax_code, p.active, p.created_at, p.updated_at,
		       t.code, t.name, t.rate, t.active, t.created_at, t.updated_at
		FROM products p
		JOIN tax_classes t ON p.tax_code = t.code
		WHERE p.barcode = $1 AND p.active AND t.active
	`

	product := &domain.Product{}
	taxClass := &domain.TaxClass{}
	err := r.db.QueryRowContext(ctx, query, barcode).Scan(
		&product.Barcode,
		&product.Name,
		&product.UnitPrice,
		&product.TaxCode,
		&product.Active,
		&product.CreatedAt,
		&product.UpdatedAt,
		&taxClass.Code,
		&taxClass.Name,
		&taxClass.Rate,
		&taxClass.Active,
		&taxClass.CreatedAt,
		&taxClass.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("failed to find product by barcode: %w", err)
	}

	return product, taxClass, nil
}

// FindTaxClass retrieves an active tax class by code.
func (r *catalogRepository) FindTaxClass(ctx context.Context, code string) (*domain.TaxClass, error) {
	query := `
		SELECT code, name, rate, active, created_at, updated_at
		FROM tax_classes
		WHERE code = $1 AND active
	`

	taxClass := &domain.TaxClass{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&taxClass.Code,
		&taxClass.Name,
		&taxClass.Rate,
		&taxClass.Active,
		&taxClass.CreatedAt,
		&taxClass.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTaxClassNotFound
		}
		return nil, fmt.Errorf("failed to find tax class: %w", err)
	}

	return taxClass, nil
}
