package domain

import "fmt"

// RateScale is the fixed-point denominator for tax rates. Rates are
// stored as integer ten-thousandths, e.g. 800 = 8.00%, 1000 = 10.00%.
// Monetary amounts and rates never use binary floating point.
const RateScale = 10000

// Rate is a tax rate in ten-thousandths.
type Rate int64

// Valid reports whether the rate lies within [0%, 100%].
func (r Rate) Valid() bool {
	return r >= 0 && r <= RateScale
}

// String renders the rate as a 4-decimal fraction, e.g. "0.0800".
func (r Rate) String() string {
	return fmt.Sprintf("%d.%04d", int64(r)/RateScale, int64(r)%RateScale)
}
