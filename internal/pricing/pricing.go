// Package pricing holds the pure monetary core of the settlement
// engine: tax computation, line pricing and total aggregation. All
// arithmetic is integer minor-unit; no floating point touches money.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"pos-register/internal/domain"
)

// TaxAmount computes floor(price * rate). Consumption tax is rounded
// down to the minor currency unit; integer division does exactly that
// for non-negative operands. Rates outside [0, 1] come from a corrupted
// catalog and are rejected.
func TaxAmount(price int64, rate domain.Rate) (int64, error) {
	if price < 0 {
		return 0, domain.NewComputationError("", fmt.Sprintf("negative price %d", price))
	}
	if !rate.Valid() {
		return 0, domain.NewComputationError("", fmt.Sprintf("tax rate %s out of range", rate))
	}
	if rate > 0 && price > math.MaxInt64/int64(rate) {
		return 0, domain.NewComputationError("", fmt.Sprintf("tax amount overflows for price %d", price))
	}
	return price * int64(rate) / domain.RateScale, nil
}

// PriceLine builds a PricedLine from a catalog snapshot and a requested
// quantity. Tax is computed on the line subtotal, not per unit, so
// rounding happens once per line; the two orderings can differ by up to
// quantity-1 minor units.
func PriceLine(product *domain.Product, taxClass *domain.TaxClass, quantity int64) (domain.PricedLine, error) {
	if quantity <= 0 {
		return domain.PricedLine{}, domain.NewValidationError(product.Barcode,
			fmt.Sprintf("quantity must be positive, got %d", quantity))
	}

	// Quantity is caller input and unbounded; a wrapped product would
	// persist a subtotal unrelated to unit_price * quantity. Division
	// undoes a non-wrapped multiplication exactly.
	subtotalExcl := product.UnitPrice * quantity
	if product.UnitPrice != 0 && subtotalExcl/product.UnitPrice != quantity {
		return domain.PricedLine{}, domain.NewValidationError(product.Barcode,
			fmt.Sprintf("quantity %d overflows the line subtotal", quantity))
	}

	tax, err := TaxAmount(subtotalExcl, taxClass.Rate)
	if err != nil {
		var se *domain.SettlementError
		if errors.As(err, &se) {
			se.Barcode = product.Barcode
		}
		return domain.PricedLine{}, err
	}

	return domain.PricedLine{
		Barcode:         product.Barcode,
		ProductName:     product.Name,
		UnitPrice:       product.UnitPrice,
		Quantity:        quantity,
		SubtotalExclTax: subtotalExcl,
		TaxCode:         taxClass.Code,
		TaxRate:         taxClass.Rate,
		TaxAmount:       tax,
		SubtotalInclTax: subtotalExcl + tax,
	}, nil
}

// Aggregate sums priced lines into header totals. Summation is
// commutative; the result does not depend on line order. An empty cart
// is not a sale.
func Aggregate(lines []domain.PricedLine) (domain.Totals, error) {
	if len(lines) == 0 {
		return domain.Totals{}, domain.NewValidationError("", "cart is empty")
	}

	var totals domain.Totals
	for _, line := range lines {
		totals.AmountExclTax += line.SubtotalExclTax
		totals.TaxAmount += line.TaxAmount
		totals.AmountInclTax += line.SubtotalInclTax
	}
	return totals, nil
}
