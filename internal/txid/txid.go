// Package txid generates transaction identifiers. The format is
// human-traceable and sortable: {YYYYMMDD}_{store}_{terminal}_{HHMMSS}.
//
// The scheme is only unique to one-second resolution per (store,
// terminal) pair, so the settlement engine serializes generation with
// persistence and retries with a suffixed identifier when the backing
// store reports a collision.
package txid

import (
	"fmt"
	"time"
)

// Generate mints the base identifier for a settlement at the given
// wall-clock time.
func Generate(storeCode, terminalID string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s",
		at.Format("20060102"), storeCode, terminalID, at.Format("150405"))
}

// WithSuffix disambiguates a colliding identifier with a retry counter,
// n >= 1.
func WithSuffix(id string, n int) string {
	return fmt.Sprintf("%s_%d", id, n)
}

// LineID builds the identifier of a transaction line from its owning
// transaction and 1-based sequence number.
func LineID(transactionID string, seq int) string {
	return fmt.Sprintf("%s_%d", transactionID, seq)
}
