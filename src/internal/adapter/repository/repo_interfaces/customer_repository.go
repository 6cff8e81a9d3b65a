package repo_interfaces

import (
	"context"

	"github.com/api-sage/bank-account-service/src/internal/domain"
)

type CustomerRepository interface {
	Insert(ctx context.Context, customer domain.Customer) (domain.Customer, error)
}
