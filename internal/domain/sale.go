package domain

import "time"

// CartLine is one scanned item as submitted by the register client.
// Transient input, never persisted as-is.
type CartLine struct {
	Barcode  string `json:"barcode"`
	Quantity int64  `json:"quantity"`
}

// PricedLine is a cart line after price and tax computation, carrying a
// snapshot of the catalog and tax data it was priced against. Immutable
// once computed.
//
// Invariants: SubtotalInclTax = SubtotalExclTax + TaxAmount, and
// TaxAmount = floor(SubtotalExclTax * TaxRate).
type PricedLine struct {
	Barcode         string `json:"barcode"`
	ProductName     string `json:"product_name"`
	UnitPrice       int64  `json:"unit_price"`
	Quantity        int64  `json:"quantity"`
	SubtotalExclTax int64  `json:"subtotal_excl_tax"`
	TaxCode         string `json:"tax_code"`
	TaxRate         Rate   `json:"tax_rate"`
	TaxAmount       int64  `json:"tax_amount"`
	SubtotalInclTax int64  `json:"subtotal_incl_tax"`
}

// Totals are the header-level sums over a sale's priced lines.
type Totals struct {
	AmountExclTax int64 `json:"total_amount_excl_tax"`
	TaxAmount     int64 `json:"total_tax_amount"`
	AmountInclTax int64 `json:"total_amount_incl_tax"`
}

// Transaction is the header of a settled sale. Append-only: created
// exactly once at settlement and never mutated.
type Transaction struct {
	ID            string    `json:"transaction_id" db:"id"`
	StoreCode     string    `json:"store_code" db:"store_code"`
	TerminalID    string    `json:"terminal_id" db:"terminal_id"`
	CashierCode   string    `json:"cashier_code" db:"cashier_code"`
	SettledAt     time.Time `json:"settled_at" db:"settled_at"`
	AmountExclTax int64     `json:"total_amount_excl_tax" db:"total_amount_excl_tax"`
	TaxAmount     int64     `json:"total_tax_amount" db:"total_tax_amount"`
	AmountInclTax int64     `json:"total_amount_incl_tax" db:"total_amount_incl_tax"`
	Note          string    `json:"note,omitempty" db:"note"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Totals returns the header totals of the transaction.
func (t *Transaction) Totals() Totals {
	return Totals{
		AmountExclTax: t.AmountExclTax,
		TaxAmount:     t.TaxAmount,
		AmountInclTax: t.AmountInclTax,
	}
}

// TransactionLine is one persisted line of a settled sale: a full copy
// of the PricedLine it was built from plus its position in the cart.
// The line set of a transaction is fixed at creation.
type TransactionLine struct {
	ID              string    `json:"line_id" db:"id"`
	TransactionID   string    `json:"transaction_id" db:"transaction_id"`
	Seq             int       `json:"seq" db:"seq"`
	Barcode         string    `json:"barcode" db:"barcode"`
	ProductName     string    `json:"product_name" db:"product_name"`
	UnitPrice       int64     `json:"unit_price" db:"unit_price"`
	Quantity        int64     `json:"quantity" db:"quantity"`
	SubtotalExclTax int64     `json:"subtotal_excl_tax" db:"subtotal_excl_tax"`
	TaxCode         string    `json:"tax_code" db:"tax_code"`
	TaxRate         Rate      `json:"tax_rate" db:"tax_rate"`
	TaxAmount       int64     `json:"tax_amount" db:"tax_amount"`
	SubtotalInclTax int64     `json:"subtotal_incl_tax" db:"subtotal_incl_tax"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
