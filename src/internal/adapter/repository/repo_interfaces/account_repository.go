package repo_interfaces

import (
	"context"

	"github.com/api-sage/bank-account-service/src/internal/domain"
)

// AccountRepository is the store contract the balance engine runs against.
//
// Save is a compare-and-swap: it commits account.Balance and advances the
// stored version by one only if the stored version still equals
// account.Version. A lost race returns domain.ErrVersionConflict so the
// caller can re-read and retry; it is never folded into a generic error.
type AccountRepository interface {
	Insert(ctx context.Context, account domain.Account) (domain.Account, error)
	GetByIBAN(ctx context.Context, iban string) (domain.Account, error)
	Save(ctx context.Context, account domain.Account) error
}
