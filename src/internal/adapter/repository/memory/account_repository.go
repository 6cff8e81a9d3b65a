package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/api-sage/bank-account-service/src/internal/domain"
)

// AccountRepository is an in-process store with the same compare-and-swap
// contract as the Postgres implementation. The mutex only guards map access;
// version arbitration between concurrent writers works exactly as it does
// against the database, so the engine's retry loop is exercised for real.
type AccountRepository struct {
	mu       sync.Mutex
	byIBAN   map[string]domain.Account
	sequence int
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{byIBAN: make(map[string]domain.Account)}
}

func (r *AccountRepository) Insert(_ context.Context, account domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byIBAN[account.IBAN]; exists {
		return domain.Account{}, domain.ErrDuplicateAccountNumber
	}

	r.sequence++
	account.ID = fmt.Sprintf("acc-%d", r.sequence)
	account.Version = 0
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	r.byIBAN[account.IBAN] = account

	return account, nil
}

func (r *AccountRepository) GetByIBAN(_ context.Context, iban string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byIBAN[iban]
	if !ok {
		return domain.Account{}, domain.ErrRecordNotFound
	}

	return account, nil
}

func (r *AccountRepository) Save(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byIBAN[account.IBAN]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if stored.Version != account.Version {
		return domain.ErrVersionConflict
	}

	stored.Balance = account.Balance
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	r.byIBAN[account.IBAN] = stored

	return nil
}
