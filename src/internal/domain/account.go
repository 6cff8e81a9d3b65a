package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the only mutable aggregate in the service. Balance is an exact
// decimal amount and Version is the optimistic-lock token: every committed
// write advances it by exactly one, and a conditional save guarded by the
// version read in the same attempt is the only way the balance changes.
type Account struct {
	ID         string
	CustomerID string
	IBAN       string
	Balance    decimal.Decimal
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Customer carries only what the account side needs. Field validation and
// uniqueness live with the customer store, not here.
type Customer struct {
	ID        string
	FirstName string
	Address   string
	Email     string
	CreatedAt time.Time
}
