package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cashier is a register operator.
type Cashier struct {
	Code         string    `json:"code" db:"code"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RefreshToken is a long-lived credential issued at login and revoked
// at logout.
type RefreshToken struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CashierCode string    `json:"cashier_code" db:"cashier_code"`
	Token       string    `json:"token" db:"token"`
	ExpiresAt   time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Revoked     bool      `json:"revoked" db:"revoked"`
}
