package domain

import "time"

// TaxClass is a named rate bucket from the tax master. Read-only to the
// settlement core; a snapshot of code and rate is copied into each
// priced line so later edits never alter historical sales.
type TaxClass struct {
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Rate      Rate      `json:"rate" db:"rate"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a catalog entry keyed by barcode. UnitPrice is
// tax-exclusive, in minor currency units.
type Product struct {
	Barcode   string    `json:"barcode" db:"barcode"`
	Name      string    `json:"name" db:"name"`
	UnitPrice int64     `json:"unit_price" db:"unit_price"`
	TaxCode   string    `json:"tax_code" db:"tax_code"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
